package logger

import (
	"fmt"

	"campus-assistant/internal/application/port/output"

	"go.uber.org/zap"
)

var _ output.LoggerPort = (*ZapLogger)(nil)

type ZapLogger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// New creates the process logger. Development mode uses the console encoder;
// production writes structured JSON.
func New(development bool) (*ZapLogger, error) {
	var base *zap.Logger
	var err error
	if development {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &ZapLogger{base: base, sugar: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything; used in tests.
func NewNop() *ZapLogger {
	base := zap.NewNop()
	return &ZapLogger{base: base, sugar: base.Sugar()}
}

func (l *ZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *ZapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *ZapLogger) WithField(key string, value any) output.LoggerPort {
	sugar := l.sugar.With(key, value)
	return &ZapLogger{base: l.base, sugar: sugar}
}

func (l *ZapLogger) Close() error {
	// Sync on stderr returns a harmless error on some platforms.
	_ = l.base.Sync()
	return nil
}
