// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging installs the global zap logger for a run.
package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// Options adjusts Setup beyond the configured values.
type Options struct {
	// Verbose forces debug level.
	Verbose bool

	// Now names the per-run log file; nil uses time.Now.
	Now func() time.Time
}

// FileName returns the per-run log file name for t.
func FileName(t time.Time) string {
	return "matching_" + t.Format("20060102_150405") + ".log"
}

// Setup builds a logger from cfg, installs it with zap.ReplaceGlobals and
// returns it with the path of the per-run log file ("" when cfg.Dir is
// empty). Console format writes human-readable lines; anything else
// writes JSON. Callers should Sync the logger before exit.
func Setup(cfg types.LogConfig, opts Options) (*zap.Logger, string, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.DisableStacktrace = true
	}
	zapCfg.OutputPaths = []string{"stderr"}

	levelName := cfg.Level
	if opts.Verbose {
		levelName = "debug"
	}
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, "", eris.Wrap(err, "logging: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	var logFile string
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, "", eris.Wrapf(err, "logging: create %s", cfg.Dir)
		}
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		logFile = filepath.Join(cfg.Dir, FileName(now()))
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, logFile)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, "", eris.Wrap(err, "logging: build logger")
	}
	zap.ReplaceGlobals(logger)
	logger.Info("logging initialized", zap.String("level", level.String()), zap.String("file", logFile))
	return logger, logFile, nil
}
