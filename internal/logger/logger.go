package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// Init builds the global logger. Level is parsed from LOG_LEVEL, format
// from LOG_FORMAT ("json" or console, default console).
func Init() {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if os.Getenv("LOG_FORMAT") == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	globalLogger = zap.New(core, zap.AddCaller())
}

// L returns the global logger. Safe to call before Init; logs are dropped
// until Init runs, which keeps tests quiet.
func L() *zap.Logger {
	return globalLogger
}

// Sync flushes buffered log entries.
func Sync() {
	_ = globalLogger.Sync()
}
