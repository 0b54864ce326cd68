package metadata

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

type LoggerConfig struct {
	// Verbose lowers the level from warn to info.
	Verbose bool
	Format  LogFormat
	Output  io.Writer
}

// NewLogger builds the crawl logger. Quiet runs only show warnings and
// errors; verbose runs also show every fetch and page.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if LogFormat(strings.ToLower(string(cfg.Format))) == LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	level := zerolog.WarnLevel
	if cfg.Verbose {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
