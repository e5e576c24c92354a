package configslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log structured logger, SLog sugared wrapper around the same core.
// Both are no-ops until InitLogger runs so packages can log from tests.
var (
	Log  = zap.NewNop()
	SLog = Log.Sugar()
)

// InitLogger builds the application logger from APP_ENV.
// production -> JSON encoder at info level, anything else -> console encoder at debug level.
func InitLogger() {
	var cfg zap.Config
	if os.Getenv("APP_ENV") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		panic("logger could not be initialized: " + err.Error())
	}

	Log = logger
	SLog = logger.Sugar()
	zap.ReplaceGlobals(logger)
}

// SyncLogger flushes buffered log entries. Call it with defer in main.
func SyncLogger() {
	_ = Log.Sync()
}
