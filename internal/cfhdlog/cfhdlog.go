// Package cfhdlog provides the structured logger used throughout the
// codec and its surrounding tooling: a small Logger interface shaped
// after ausocean-av's logging contract (Log/SetLevel/Debug/Info/Warning/
// Error/Fatal), backed by zap with lumberjack-managed log rotation.
package cfhdlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level mirrors ausocean-av's integer log levels, used by SetLevel to
// filter messages without reconstructing the logger.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarningLevel
	ErrorLevel
	FatalLevel
)

// Logger is the logging contract every package in this module takes as a
// dependency, rather than a concrete *zap.Logger, so callers (tests,
// cmd/ tools) can substitute a no-op or buffering implementation.
type Logger interface {
	SetLevel(level Level)
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warning(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Fatal(msg string, kv ...interface{})
}

// ZapLogger adapts a zap.SugaredLogger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New builds a ZapLogger that writes JSON-encoded records to logPath,
// rotated by lumberjack once they exceed maxSizeMB.
func New(logPath string, maxSizeMB int) *ZapLogger {
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
	level := zap.NewAtomicLevelAt(zapToZapLevel(InfoLevel))
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ws, level)
	return &ZapLogger{sugar: zap.New(core).Sugar(), level: level}
}

// NewNop returns a Logger that discards everything, for tests and quiet
// command-line runs.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

func zapToZapLevel(l Level) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

func (l *ZapLogger) SetLevel(level Level) { l.level.SetLevel(zapToZapLevel(level)) }
func (l *ZapLogger) Debug(msg string, kv ...interface{})   { l.sugar.Debugw(msg, kv...) }
func (l *ZapLogger) Info(msg string, kv ...interface{})    { l.sugar.Infow(msg, kv...) }
func (l *ZapLogger) Warning(msg string, kv ...interface{}) { l.sugar.Warnw(msg, kv...) }
func (l *ZapLogger) Error(msg string, kv ...interface{})   { l.sugar.Errorw(msg, kv...) }
func (l *ZapLogger) Fatal(msg string, kv ...interface{})   { l.sugar.Fatalw(msg, kv...) }
