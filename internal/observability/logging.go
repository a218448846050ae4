package observability

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// LevelSetter is implemented by loggers whose level can change while the
// process runs. Loggers derived with With share the level of their parent.
type LevelSetter interface {
	SetLevel(level string) error
	Level() string
}

// ErrLevelFixed is returned by SetLevel for loggers built around a caller
// owned zap core.
var ErrLevelFixed = errors.New("logger level cannot be changed")

// Field represents a log field.
type Field = zap.Field

// Field constructors for convenience.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
	Time     = zap.Time
)

// LogConfig selects level, encoding, and destination of NewLogger.
// Format is "json" or "console"; Output is "stdout" or "stderr".
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// DefaultLogConfig returns JSON info logging to stdout.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

// logTimeLayout matches the timestamps written in response bodies.
const logTimeLayout = "2006-01-02T15:04:05.000Z"

type zapLogger struct {
	logger *zap.Logger
	level  *zap.AtomicLevel
}

// NewLogger builds a zap logger from cfg. The returned logger implements
// LevelSetter.
func NewLogger(cfg LogConfig) (Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(newEncoder(cfg.Format), sink, atom)

	return &zapLogger{
		logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:  &atom,
	}, nil
}

// NewZapLogger wraps an existing zap logger. Its level belongs to the
// caller's core, so SetLevel returns ErrLevelFixed.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{logger: logger}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.MessageKey = "message"
	ec.EncodeTime = utcTimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func utcTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(logTimeLayout))
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	default:
		return nil, fmt.Errorf("unsupported log output %q", output)
	}
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field) { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field) { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.logger.Fatal(msg, fields...) }
func (l *zapLogger) Sync() error { return l.logger.Sync() }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...), level: l.level}
}

// SetLevel implements LevelSetter.
func (l *zapLogger) SetLevel(level string) error {
	if l.level == nil {
		return ErrLevelFixed
	}
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(parsed)
	return nil
}

// Level implements LevelSetter.
func (l *zapLogger) Level() string {
	if l.level == nil {
		return ""
	}
	return l.level.Level().String()
}

// SetLevel changes the level of logger if it supports it.
func SetLevel(logger Logger, level string) error {
	ls, ok := logger.(LevelSetter)
	if !ok {
		return ErrLevelFixed
	}
	return ls.SetLevel(level)
}

var globalLogger atomic.Pointer[Logger]

// SetGlobalLogger sets the process-wide logger. Nil clears it.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger.Store(nil)
		return
	}
	globalLogger.Store(&logger)
}

// GetGlobalLogger returns the process-wide logger, or a no-op logger when
// none was set.
func GetGlobalLogger() Logger {
	if p := globalLogger.Load(); p != nil {
		return *p
	}
	return NopLogger()
}

var nopLogger Logger = &zapLogger{logger: zap.NewNop()}

// NopLogger returns a logger that discards all output.
func NopLogger() Logger {
	return nopLogger
}
