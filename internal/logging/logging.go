// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/librarian/internal/config"
)

// New builds a JSON logger for production or a console logger for
// development, writing to stdout. The returned func flushes buffered entries.
func New(cfg config.Log, version string) (*zap.Logger, func(), error) {
	return NewWithWriter(cfg, version, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.Log, version string, w io.Writer) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		zapConfig := zap.NewDevelopmentEncoderConfig()
		setKeys(&zapConfig)
		encoder = zapcore.NewConsoleEncoder(zapConfig)
	} else {
		zapConfig := zap.NewProductionEncoderConfig()
		setKeys(&zapConfig)
		encoder = zapcore.NewJSONEncoder(zapConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if version != "" {
		logger = logger.With(zap.String("version", version))
	}

	flusher := func() {
		// stdout reports EINVAL on Sync for terminals and pipes
		_ = logger.Sync()
	}

	return logger, flusher, nil
}

func setKeys(zapConfig *zapcore.EncoderConfig) {
	zapConfig.TimeKey = "timestamp"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "level"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "stacktrace"
}
