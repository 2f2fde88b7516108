package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions selects the log sinks.
type LogOptions struct {
	Env   string // dev/development switches to the console writer
	Level string // zerolog level name; empty means info
	File  string // optional rotated file sink

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger returns a zerolog Logger writing to stdout and, when File is set,
// to a lumberjack-rotated file as JSON.
func NewLogger(o LogOptions) zerolog.Logger {
	var out io.Writer = os.Stdout
	if o.Env == "dev" || o.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if o.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, 50),
			MaxBackups: orDefault(o.MaxBackups, 5),
			MaxAge:     orDefault(o.MaxAgeDays, 14),
			Compress:   true,
		})
	}

	level := zerolog.InfoLevel
	if o.Level != "" {
		if l, err := zerolog.ParseLevel(o.Level); err == nil {
			level = l
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
