package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/phase-imaging/internal/config"
)

// New builds a zap logger from the log settings. Production JSON output is
// the default; "console" switches to the human-readable encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.MessageKey = "message"
	zcfg.EncoderConfig.LevelKey = "level"

	if cfg.Format == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zcfg.Build()
}
