package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/config"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// CronLogger adapts zap to the cron.Logger interface.
func CronLogger(l *zap.Logger) cron.Logger {
	return cronLogger{s: l.Named("cron").Sugar()}
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
