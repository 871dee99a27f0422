package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger = zap.NewNop()

// Init builds the process-wide production logger at the given level.
// Unknown levels fall back to info.
func Init(logLevel string) {
	config := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level.SetLevel(level)
	Log, _ = config.Build()
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}
