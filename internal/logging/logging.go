// Package logging builds the zap logger described by the logging section of
// the configuration.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger from cfg. levelOverride, when set, replaces cfg.Level.
func New(cfg config.LoggingConfig, levelOverride string) (*zap.Logger, error) {
	zapCfg, err := Config(cfg, levelOverride)
	if err != nil {
		return nil, err
	}
	return zapCfg.Build()
}

// Config returns the zap configuration New would build from.
func Config(cfg config.LoggingConfig, levelOverride string) (zap.Config, error) {
	levelName := cfg.Level
	if levelOverride != "" {
		levelName = levelOverride
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return zap.Config{}, err
	}

	var zapCfg zap.Config
	switch format := strings.ToLower(strings.TrimSpace(cfg.Format)); format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	case "", "json":
		zapCfg = zap.NewProductionConfig()
	default:
		return zap.Config{}, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.OutputFile != "" {
		if err := ensureWritable(cfg.OutputFile); err != nil {
			return zap.Config{}, err
		}
		zapCfg.OutputPaths = []string{cfg.OutputFile}
		zapCfg.ErrorOutputPaths = []string{cfg.OutputFile}
	}
	return zapCfg, nil
}

// ParseLevel maps a level name to a zap level. An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", name)
}

func ensureWritable(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %v", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %v", path, err)
	}
	return file.Close()
}
