// Package logging builds the service's zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and output format
type Config struct {
	Level       string
	Encoding    string
	Development bool
}

// New builds a zap logger. Development mode logs colored console output at debug level
// unless Level says otherwise.
func New(config Config) (*zap.Logger, error) {
	var zc zap.Config
	if config.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		zc.Sampling = nil
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if config.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	switch config.Encoding {
	case "":
	case "json", "console":
		zc.Encoding = config.Encoding
	default:
		return nil, fmt.Errorf("log encoding must be 'json' or 'console', got: %s", config.Encoding)
	}

	logger, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
