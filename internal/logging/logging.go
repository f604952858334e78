package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chatroom-service/internal/config"
)

// NewLogger builds the service's JSON logger from cfg. Every entry carries the
// service name and environment so lines from several deployments can share a sink.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg, err := zapConfig(cfg)
	if err != nil {
		return nil, err
	}
	return zcfg.Build()
}

func zapConfig(cfg config.Config) (zap.Config, error) {
	var level zapcore.Level
	if err := level.Set(strings.ToLower(cfg.LogLevel)); err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "json"
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	// Stack traces only help while debugging; storage errors are already wrapped with their operation.
	zcfg.DisableStacktrace = level > zapcore.DebugLevel
	zcfg.InitialFields = map[string]interface{}{}
	if cfg.ServiceName != "" {
		zcfg.InitialFields["service"] = cfg.ServiceName
	}
	if cfg.Environment != "" {
		zcfg.InitialFields["environment"] = cfg.Environment
	}

	return zcfg, nil
}
