package main

import (
	"context"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-logger/glog"
)

// glogLogger adapts go-logger to the lifecycle logging contract.
type glogLogger struct {
	logger glog.Logger
}

func newLogger(level string) lifecycle.Logger {
	return glogLogger{logger: glog.NewLogger(
		glog.WithLevel(level),
	)}
}

func (l glogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l glogLogger) WithContext(ctx context.Context) lifecycle.Logger {
	if l.logger == nil {
		return lifecycle.NewFmtLogger(nil).WithContext(ctx)
	}
	return glogLogger{logger: l.logger.WithContext(ctx)}
}

func (l glogLogger) WithFields(fields map[string]any) lifecycle.Logger {
	if fl, ok := l.logger.(glog.FieldsLogger); ok {
		return glogLogger{logger: fl.WithFields(fields)}
	}
	return l
}
