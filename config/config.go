package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/loader"
	"github.com/Noofbiz/cliploader/spatial"
	"github.com/Noofbiz/cliploader/temporal"
)

//go:embed sample_config.toml
var sampleConfig string

// Loader contains the dataset and batching settings.
type Loader struct {
	Name          string   `toml:"name"`
	DataRoot      string   `toml:"data_root"`
	BatchSize     int      `toml:"batch_size"`
	OutFrameNum   int      `toml:"out_frame_num"`
	NumWorkers    int      `toml:"num_workers"`
	UseSampler    bool     `toml:"use_sampler"`
	SaveClassName string   `toml:"save_class_name"`
	Seed          uint64   `toml:"seed"`
	Extensions    []string `toml:"extensions"`
}

// Transform contains the frame geometry and normalization settings.
type Transform struct {
	OutputSize     []int     `toml:"output_size"` // [width, height]
	ChannelOrder   string    `toml:"channel_order"`
	TemporalPolicy string    `toml:"temporal_policy"`
	Mean           []float32 `toml:"mean"`
	Std            []float32 `toml:"std"`
}

// Augmentation mirrors spatial.Augmentation. Absent keys disable the
// corresponding change.
type Augmentation struct {
	Color    []float64 `toml:"color"`
	HFlip    *float64  `toml:"h_flip"`
	Rotation *float64  `toml:"rotation"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates every setting of the clip loader and its CLI.
//
// An absent [augmentation] table leaves Augmentation nil, which disables
// augmentation entirely.
type Config struct {
	Loader       Loader        `toml:"loader"`
	Transform    Transform     `toml:"transform"`
	Augmentation *Augmentation `toml:"augmentation"`
	Logging      Logging       `toml:"logging"`
}

// Load parses and validates the TOML file at path. Keys the file does not
// set keep their defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cliperr.Wrap(cliperr.NotFound, "load config", path, err)
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, cliperr.Wrap(cliperr.Configuration, "parse config", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Loader.Name = strings.TrimSpace(c.Loader.Name)
	c.Transform.ChannelOrder = strings.ToLower(strings.TrimSpace(c.Transform.ChannelOrder))
	c.Transform.TemporalPolicy = strings.ToLower(strings.TrimSpace(c.Transform.TemporalPolicy))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	var err error
	if c.Loader.DataRoot, err = expandPath(c.Loader.DataRoot); err != nil {
		return err
	}
	if c.Loader.SaveClassName, err = expandPath(c.Loader.SaveClassName); err != nil {
		return err
	}
	return nil
}

// LoaderName returns the loader kind to pass to loader.Build.
func (c *Config) LoaderName() string { return c.Loader.Name }

// LoaderConfig converts the file settings into a loader.Config. Call
// Validate first; LoaderConfig reports the same problems as errors.
func (c *Config) LoaderConfig() (loader.Config, error) {
	order, err := spatial.ParseChannelOrder(c.Transform.ChannelOrder)
	if err != nil {
		return loader.Config{}, err
	}
	policy, err := temporal.ParsePolicy(c.Transform.TemporalPolicy)
	if err != nil {
		return loader.Config{}, err
	}

	lc := loader.Config{
		DataRoot:       c.Loader.DataRoot,
		BatchSize:      c.Loader.BatchSize,
		OutFrameNum:    c.Loader.OutFrameNum,
		NumWorkers:     c.Loader.NumWorkers,
		UseSampler:     c.Loader.UseSampler,
		SaveClassName:  c.Loader.SaveClassName,
		Seed:           c.Loader.Seed,
		Extensions:     append([]string(nil), c.Loader.Extensions...),
		ChannelOrder:   order,
		TemporalPolicy: policy,
	}
	if len(c.Transform.OutputSize) == 2 {
		lc.OutputSize = spatial.Size{Width: c.Transform.OutputSize[0], Height: c.Transform.OutputSize[1]}
	}
	if len(c.Transform.Mean) == 3 && len(c.Transform.Std) == 3 {
		n := &spatial.Normalization{}
		copy(n.Mean[:], c.Transform.Mean)
		copy(n.Std[:], c.Transform.Std)
		lc.Normalize = n
	}
	if a := c.Augmentation; a != nil {
		lc.Augmentation = &spatial.Augmentation{
			Color:    append([]float64(nil), a.Color...),
			HFlip:    a.HFlip,
			Rotation: a.Rotation,
		}
	}
	return lc, nil
}

// Sample returns the commented sample configuration.
func Sample() string { return sampleConfig }

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
