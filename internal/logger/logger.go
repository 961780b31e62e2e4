// Package logger is the structured logger shared by the engine and the shell.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func encoder(format string) zapcore.Encoder {
	if strings.ToLower(format) == "json" {
		c := zap.NewProductionEncoderConfig()
		c.TimeKey = "ts"
		c.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(c)
	}
	c := zap.NewDevelopmentEncoderConfig()
	c.EncodeLevel = zapcore.CapitalColorLevelEncoder
	c.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(c)
}

func sink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "stderr", "":
		return zapcore.AddSync(os.Stderr), nil
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file %s: %w", output, err)
		}
		return zapcore.AddSync(f), nil
	}
}

// New builds a logger, format is "console" or "json" and output is stderr,
// stdout or a file path.
func New(level, format, output string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	ws, err := sink(output)
	if err != nil {
		return nil, err
	}
	base := zap.New(
		zapcore.NewCore(encoder(format), ws, lvl),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
	return wrap(base), nil
}

func NewNop() *Logger {
	return wrap(zap.NewNop())
}

func wrap(base *zap.Logger) *Logger {
	return &Logger{
		SugaredLogger: base.Sugar(),
		base:          base,
	}
}

func (self *Logger) Sync() error { return self.base.Sync() }

func (self *Logger) With(kv ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: self.SugaredLogger.With(kv...),
		base:          self.base,
	}
}

func (self *Logger) Named(name string) *Logger {
	return wrap(self.base.Named(name))
}

func (self *Logger) Debug(msg string, kv ...interface{}) { self.SugaredLogger.Debugw(msg, kv...) }
func (self *Logger) Info(msg string, kv ...interface{})  { self.SugaredLogger.Infow(msg, kv...) }
func (self *Logger) Warn(msg string, kv ...interface{})  { self.SugaredLogger.Warnw(msg, kv...) }
func (self *Logger) Error(msg string, kv ...interface{}) { self.SugaredLogger.Errorw(msg, kv...) }
