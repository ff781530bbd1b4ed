package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/loader"
	"github.com/Noofbiz/cliploader/spatial"
	"github.com/Noofbiz/cliploader/temporal"
)

// Validate ensures the configuration is usable. Errors match
// cliperr.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateLoader,
		c.validateTransform,
		c.validateAugmentation,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return cliperr.Wrap(cliperr.Configuration, "validate config", "", err)
		}
	}
	return nil
}

func (c *Config) validateLoader() error {
	if !slices.Contains(loader.Names(), c.Loader.Name) {
		return errors.New("loader.name must be one of " + strings.Join(loader.Names(), ", "))
	}
	if c.Loader.DataRoot == "" {
		return errors.New("loader.data_root must be set")
	}
	if c.Loader.BatchSize <= 0 {
		return errors.New("loader.batch_size must be positive")
	}
	if c.Loader.OutFrameNum <= 0 {
		return errors.New("loader.out_frame_num must be positive")
	}
	if c.Loader.NumWorkers < 0 {
		return errors.New("loader.num_workers must be >= 0")
	}
	return nil
}

func (c *Config) validateTransform() error {
	size := c.Transform.OutputSize
	if len(size) != 2 || size[0] <= 0 || size[1] <= 0 {
		return errors.New("transform.output_size must be [width, height] with positive values")
	}
	if _, err := spatial.ParseChannelOrder(c.Transform.ChannelOrder); err != nil {
		return errors.New("transform.channel_order must be bgr or rgb")
	}
	if _, err := temporal.ParsePolicy(c.Transform.TemporalPolicy); err != nil {
		return errors.New("transform.temporal_policy must be loop or pad")
	}
	mean, std := c.Transform.Mean, c.Transform.Std
	if len(mean) == 0 && len(std) == 0 {
		return nil
	}
	if len(mean) != 3 || len(std) != 3 {
		return errors.New("transform.mean and transform.std must both have 3 values")
	}
	for _, s := range std {
		if s == 0 {
			return errors.New("transform.std values must be non-zero")
		}
	}
	return nil
}

// validateAugmentation applies spatial.Augmentation's rules one field at a
// time so the failing key can be named.
func (c *Config) validateAugmentation() error {
	a := c.Augmentation
	if a == nil {
		return nil
	}
	if a.Color != nil {
		if err := (&spatial.Augmentation{Color: a.Color}).Validate(); err != nil {
			return fmt.Errorf("augmentation.color must be 4 values (brightness, contrast, saturation, hue): %w", err)
		}
	}
	if a.HFlip != nil {
		if err := (&spatial.Augmentation{HFlip: a.HFlip}).Validate(); err != nil {
			return errors.New("augmentation.h_flip must be between 0 and 1")
		}
	}
	if a.Rotation != nil {
		if err := (&spatial.Augmentation{Rotation: a.Rotation}).Validate(); err != nil {
			return errors.New("augmentation.rotation must be >= 0")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	return nil
}
