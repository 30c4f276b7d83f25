package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/neuralmail/internal/model"
)

// New builds the application logger. Output goes to cfg.File because the
// terminal belongs to the UI; an empty File logs to stderr.
func New(cfg model.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if cfg.Format == "json" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		logConfig.OutputPaths = []string{cfg.File}
		logConfig.ErrorOutputPaths = []string{cfg.File}
	} else {
		logConfig.OutputPaths = []string{"stderr"}
	}

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	return logger, nil
}

// FromConfig adapts New for the dependency container.
func FromConfig(cfg *model.AppConfig) (*zap.Logger, error) {
	return New(cfg.Logging)
}
