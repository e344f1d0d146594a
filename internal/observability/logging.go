// Package observability builds the zap loggers shared by the game server and
// its command-line tools.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/makavia/internal/config"
)

// NewLogger builds a logger for the named binary writing to stderr.
//
// Precondition: cfg passed config validation.
// Postcondition: every entry carries a "service" field set to service.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	return NewLoggerTo(cfg, service, zapcore.Lock(os.Stderr))
}

// NewLoggerTo is NewLogger writing to out.
func NewLoggerTo(cfg config.LoggingConfig, service string, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var enc zapcore.Encoder
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
		opts = append(opts, zap.Development())
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(level))
	return zap.New(core, opts...).With(zap.String("service", service)), nil
}
