// Package logging builds the zap loggers used by the clip loader and its CLI.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/config"
)

// Options configures New.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a zap logger. An unknown level falls back to info; caller
// information is only added for debug logging or development mode.
func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var enc zapcore.EncoderConfig
	switch format {
	case "json":
		enc = zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	default:
		return nil, cliperr.Configurationf("logging", "unknown log format %q (want console or json)", opts.Format)
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       opts.Development,
		DisableCaller:     !(opts.Development || level <= zapcore.DebugLevel),
		DisableStacktrace: !opts.Development,
		Encoding:          format,
		EncoderConfig:     enc,
		OutputPaths:       defaultSlice(opts.OutputPaths, []string{"stderr"}),
		ErrorOutputPaths:  defaultSlice(opts.ErrorOutputPaths, []string{"stderr"}),
	}
	return cfg.Build()
}

// NewFromConfig builds a logger from the [logging] table of cfg. A nil cfg
// logs at info level to stderr.
func NewFromConfig(cfg *config.Config) (*zap.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	return New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

func parseLevel(value string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func defaultSlice(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
