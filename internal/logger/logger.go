package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Log   = slog.New(slog.NewTextHandler(io.Discard, nil))
	level slog.LevelVar
)

// Options controls where diagnostics go. Console output never passes through here.
type Options struct {
	Level      string
	File       string // empty means stderr
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the global logger
func Init(opts Options) error {
	level.Set(ParseLevel(opts.Level))

	var w io.Writer = os.Stderr
	if opts.File != "" {
		// Probe the path once so a bad location fails at startup, not on first write.
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		f.Close()
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
	}

	Log = slog.New(newHandler(w))
	slog.SetDefault(Log)
	return nil
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: &level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten time format
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})
}

// ParseLevel maps a config string to a slog level. Unknown values mean warn,
// which keeps a healthy console session silent.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SetLevel changes the level of the running logger.
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// Level returns the active level.
func Level() slog.Level {
	return level.Level()
}

func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
