package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on a sugared zap logger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a zap-backed Logger. "json" selects the production encoder.
func NewZapLogger(level, format string) (*ZapLogger, error) {
	var cfg zap.Config
	if strings.EqualFold(format, logFormatJSON) {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	base, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: base.Sugar()}, nil
}

// NewZapLoggerFrom wraps an existing zap logger
func NewZapLoggerFrom(base *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: base.Sugar()}
}

func zapLevel(level string) zapcore.Level {
	switch getLogLevel(level).String() {
	case "debug":
		return zapcore.DebugLevel
	case "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *ZapLogger) Debug(args ...interface{}) { z.log(zapcore.DebugLevel, args) }
func (z *ZapLogger) Info(args ...interface{})  { z.log(zapcore.InfoLevel, args) }
func (z *ZapLogger) Warn(args ...interface{})  { z.log(zapcore.WarnLevel, args) }
func (z *ZapLogger) Error(args ...interface{}) { z.log(zapcore.ErrorLevel, args) }
func (z *ZapLogger) Fatal(args ...interface{}) { z.log(zapcore.FatalLevel, args) }

func (z *ZapLogger) log(level zapcore.Level, args []interface{}) {
	if msg, fields, ok := splitKeyValues(args); ok {
		kv := make([]interface{}, 0, len(fields)*2)
		for k, v := range fields {
			kv = append(kv, k, v)
		}
		switch level {
		case zapcore.DebugLevel:
			z.sugar.Debugw(msg, kv...)
		case zapcore.WarnLevel:
			z.sugar.Warnw(msg, kv...)
		case zapcore.ErrorLevel:
			z.sugar.Errorw(msg, kv...)
		case zapcore.FatalLevel:
			z.sugar.Fatalw(msg, kv...)
		default:
			z.sugar.Infow(msg, kv...)
		}
		return
	}
	switch level {
	case zapcore.DebugLevel:
		z.sugar.Debug(args...)
	case zapcore.WarnLevel:
		z.sugar.Warn(args...)
	case zapcore.ErrorLevel:
		z.sugar.Error(args...)
	case zapcore.FatalLevel:
		z.sugar.Fatal(args...)
	default:
		z.sugar.Info(args...)
	}
}

func (z *ZapLogger) Debugf(format string, args ...interface{}) { z.sugar.Debugf(format, args...) }
func (z *ZapLogger) Infof(format string, args ...interface{})  { z.sugar.Infof(format, args...) }
func (z *ZapLogger) Warnf(format string, args ...interface{})  { z.sugar.Warnf(format, args...) }
func (z *ZapLogger) Errorf(format string, args ...interface{}) { z.sugar.Errorf(format, args...) }
func (z *ZapLogger) Fatalf(format string, args ...interface{}) { z.sugar.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (z *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &ZapLogger{sugar: z.sugar.With(kv...)}
}

// WithContext adds the request-scoped identifiers carried by ctx
func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	return z.WithFields(contextFields(ctx))
}

// WithComponent adds component name to the logger
func (z *ZapLogger) WithComponent(component string) Logger {
	return &ZapLogger{sugar: z.sugar.With("component", component)}
}

// Sync flushes buffered entries
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
