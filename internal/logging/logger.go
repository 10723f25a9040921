package logging

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global = newSwapCore(zapcore.NewNopCore())

	// Logger and Sugar are created once and never reassigned. Until
	// Initialize runs (and in tests) they discard everything; initializing
	// swaps the core underneath them, so goroutines that are already logging
	// keep using the same pointers.
	Logger = zap.New(global, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	Sugar  = Logger.Sugar()
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// Initialize sets up the global logger from LOG_LEVEL and LOG_FORMAT.
func Initialize() error {
	return InitializeWithConfig(LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	})
}

// InitializeWithConfig sets up the global logger with provided configuration.
// Environment variables take precedence over empty config values. It is safe
// to call while other goroutines log.
func InitializeWithConfig(config LogConfig) error {
	if config.Level == "" {
		config.Level = getEnvOrDefault("LOG_LEVEL", "info")
	}
	if config.Format == "" {
		config.Format = getEnvOrDefault("LOG_FORMAT", "console")
	}

	var zapConfig zap.Config
	switch strings.ToLower(config.Format) {
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(config.Level))
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	built, err := zapConfig.Build()
	if err != nil {
		return err
	}
	global.swap(built.Core())

	Sugar.Infof("Logging: initialized (level: %s, format: %s)", level.String(), config.Format)
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	// Sync fails on some terminals (ENOTTY on stderr); nothing useful to do about it.
	_ = Logger.Sync()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// swapCore forwards to a core that can be replaced at runtime.
type swapCore struct {
	inner atomic.Pointer[coreBox]
}

type coreBox struct{ core zapcore.Core }

func newSwapCore(core zapcore.Core) *swapCore {
	s := &swapCore{}
	s.swap(core)
	return s
}

func (s *swapCore) swap(core zapcore.Core) { s.inner.Store(&coreBox{core: core}) }

func (s *swapCore) load() zapcore.Core { return s.inner.Load().core }

func (s *swapCore) Enabled(lvl zapcore.Level) bool { return s.load().Enabled(lvl) }

// With binds fields lazily so child loggers follow later swaps.
func (s *swapCore) With(fields []zapcore.Field) zapcore.Core {
	return &fieldsCore{parent: s, fields: fields}
}

func (s *swapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return s.load().Check(ent, ce)
}

func (s *swapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return s.load().Write(ent, fields)
}

func (s *swapCore) Sync() error { return s.load().Sync() }

type fieldsCore struct {
	parent *swapCore
	fields []zapcore.Field
}

func (f *fieldsCore) current() zapcore.Core { return f.parent.load().With(f.fields) }

func (f *fieldsCore) Enabled(lvl zapcore.Level) bool { return f.parent.Enabled(lvl) }

func (f *fieldsCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(f.fields)+len(fields))
	merged = append(merged, f.fields...)
	merged = append(merged, fields...)
	return &fieldsCore{parent: f.parent, fields: merged}
}

func (f *fieldsCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return f.current().Check(ent, ce)
}

func (f *fieldsCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return f.current().Write(ent, fields)
}

func (f *fieldsCore) Sync() error { return f.parent.Sync() }
