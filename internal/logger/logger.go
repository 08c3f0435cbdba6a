// Package logger provides fusta's process-wide structured logger: a
// log/slog.Logger wrapping either a text or JSON handler, with an
// adjustable severity floor and optional file rotation, grounded on the
// logging stack of the teacher project this module was built from.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels below/around the four slog built-ins, matching the
// TRACE/DEBUG/INFO/WARNING/ERROR/OFF ladder fusta's configuration
// exposes through internal/cfg.
const (
	LevelTrace slog.Level = slog.LevelDebug - 4
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelOff   slog.Level = slog.LevelError + 4
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
	LevelOff:   "OFF",
}

// loggerFactory builds slog.Handlers sharing one severity floor and
// output format, and owns the rotating file the handlers write to, if
// any.
type loggerFactory struct {
	rotator         *lumberjack.Logger
	format          string
	level           *slog.LevelVar
	logRotateConfig LogRotateConfig
}

// LogRotateConfig mirrors the rotation knobs fusta exposes via
// internal/cfg, passed straight through to lumberjack.
type LogRotateConfig struct {
	MaxFileSizeMB  int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig matches the teacher project's defaults.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{MaxFileSizeMB: 512, BackupFileCount: 10, Compress: false}
}

var (
	defaultLogger        = slog.New(slog.NewTextHandler(os.Stderr, nil))
	defaultLoggerFactory = &loggerFactory{format: "text", level: &slog.LevelVar{}}
)

func init() {
	defaultLoggerFactory.level.Set(LevelInfo)
}

// replaceAttr renders fusta's custom levels under the "severity" key
// instead of slog's default "level", matching the text/JSON shapes this
// package's tests assert against.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		level, _ := a.Value.Any().(slog.Level)
		name, ok := levelNames[level]
		if !ok {
			name = level.String()
		}
		a.Key = "severity"
		a.Value = slog.StringValue(name)
	case slog.TimeKey:
		a.Key = "timestamp"
	}
	return a
}

// createJsonOrTextHandler builds a slog.Handler over w at the given
// format ("json" or anything else falls back to text), gated by level.
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetLogFormat switches the default logger between "text" and "json"
// output, rebuilding its handler over the current sink.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	sink := io.Writer(os.Stderr)
	if defaultLoggerFactory.rotator != nil {
		sink = defaultLoggerFactory.rotator
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(sink, defaultLoggerFactory.level))
}

// setLoggingLevel parses a severity name and applies it to programLevel,
// defaulting to INFO on an unrecognized value.
func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	case "TRACE":
		programLevel.Set(LevelTrace)
	case "DEBUG":
		programLevel.Set(LevelDebug)
	case "INFO":
		programLevel.Set(LevelInfo)
	case "WARNING":
		programLevel.Set(LevelWarn)
	case "ERROR":
		programLevel.Set(LevelError)
	case "OFF":
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

// Config is the subset of internal/cfg.LoggingConfig this package needs:
// where to write, at what severity, and in what format.
type Config struct {
	FilePath string
	Severity string
	Format   string
	Rotate   LogRotateConfig
}

// InitLogFile points the default logger at cfg: a file (rotated via
// lumberjack when FilePath is set) or stderr otherwise, at cfg's
// severity and format.
func InitLogFile(cfg Config) error {
	defaultLoggerFactory.format = cfg.Format
	defaultLoggerFactory.logRotateConfig = cfg.Rotate
	setLoggingLevel(cfg.Severity, defaultLoggerFactory.level)

	var sink io.Writer = os.Stderr
	if cfg.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename: cfg.FilePath,
			MaxSize:  cfg.Rotate.MaxFileSizeMB,
			MaxBackups: cfg.Rotate.BackupFileCount,
			Compress: cfg.Rotate.Compress,
		}
		defaultLoggerFactory.rotator = rotator
		sink = rotator
	}

	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(sink, defaultLoggerFactory.level))
	return nil
}

// Logger returns the process-wide logger, for packages (like
// internal/fusefs) that want a *slog.Logger handle instead of the
// package-level helpers below.
func Logger() *slog.Logger { return defaultLogger }

func logf(level slog.Level, format string, args ...any) {
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(context.Background(), level, msg)
}

func Tracef(format string, args ...any) { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }
