package env

import (
	"fmt"

	zap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogFileSizeMB = 100
	maxLogFileBackup = 5
	maxLogFileAgeDay = 28
)

// MakeLogger builds the JSON production logger at the configured level.
// When a log file is configured it is written to as well as stderr, and
// rotated.
func MakeLogger(conf *Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)

	if conf.LogLevel != "" {
		if err := level.UnmarshalText([]byte(conf.LogLevel)); err != nil {
			return nil, fmt.Errorf("Invalid log level %q: %w", conf.LogLevel, err)
		}
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = level
	logConfig.Encoding = "json"

	if conf.LogFile == "" {
		return logConfig.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   conf.LogFile,
		MaxSize:    maxLogFileSizeMB,
		MaxBackups: maxLogFileBackup,
		MaxAge:     maxLogFileAgeDay,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(logConfig.EncoderConfig),
		zapcore.AddSync(rotator),
		level,
	)

	return logConfig.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
