package main

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Noofbiz/cliploader/config"
	"github.com/Noofbiz/cliploader/loader"
	"github.com/Noofbiz/cliploader/logging"
)

type globalFlags struct {
	config   string
	dataRoot string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the file named by --config, or the defaults when none
// is given, then applies the flag overrides and validates the result.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var cfg *config.Config
		if path := strings.TrimSpace(c.flags.config); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				c.configErr = err
				return
			}
			cfg = loaded
		} else {
			d := config.Default()
			cfg = &d
		}
		if root := strings.TrimSpace(c.flags.dataRoot); root != "" {
			expanded, err := config.ExpandPath(root)
			if err != nil {
				c.configErr = err
				return
			}
			cfg.Loader.DataRoot = expanded
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// newLoader builds the configured loader kind.
func (c *commandContext) newLoader() (*loader.Loader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	lc, err := cfg.LoaderConfig()
	if err != nil {
		return nil, err
	}
	l, err := loader.Build(cfg.LoaderName(), lc, loader.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build %s loader: %w", cfg.LoaderName(), err)
	}
	return l, nil
}
