package config

import (
	"github.com/Noofbiz/cliploader/datasets"
	"github.com/Noofbiz/cliploader/loader"
	"github.com/Noofbiz/cliploader/spatial"
)

const (
	defaultLoaderName     = "RGB"
	defaultChannelOrder   = "bgr"
	defaultTemporalPolicy = "loop"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// Default returns the configuration used for keys a file does not set. It has
// no data root and no augmentation.
func Default() Config {
	return Config{
		Loader: Loader{
			Name:        defaultLoaderName,
			BatchSize:   loader.DefaultBatchSize,
			OutFrameNum: loader.DefaultOutFrameNum,
			NumWorkers:  loader.DefaultNumWorkers,
			Extensions:  append([]string(nil), datasets.DefaultExtensions...),
		},
		Transform: Transform{
			OutputSize:     []int{spatial.DefaultSize.Width, spatial.DefaultSize.Height},
			ChannelOrder:   defaultChannelOrder,
			TemporalPolicy: defaultTemporalPolicy,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
