// Package logging provides the Logger used by the store and servers, with
// adapters for zap and logrus.
//
// The interface matches the method set of *slog.Logger, so a standard
// library logger can also be passed directly.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"propindex/pkg/config"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Discard drops every message.
type Discard struct{}

func (Discard) Debug(string, ...any) {}
func (Discard) Info(string, ...any)  {}
func (Discard) Warn(string, ...any)  {}
func (Discard) Error(string, ...any) {}

// New builds a Logger from the log section of the configuration.
func New(cfg config.LogConfig) (Logger, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "zap":
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		zc := zap.NewProductionConfig()
		if cfg.Format == "console" {
			zc = zap.NewDevelopmentConfig()
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		zl, err := zc.Build()
		if err != nil {
			return nil, err
		}
		return NewZap(zl), nil

	case "logrus":
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		ll := logrus.New()
		ll.SetOutput(os.Stderr)
		ll.SetLevel(level)
		if cfg.Format == "json" {
			ll.SetFormatter(&logrus.JSONFormatter{})
		} else {
			ll.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		return NewLogrus(ll), nil

	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}
