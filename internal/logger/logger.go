package logger

import (
	"go-cms-app/internal/config"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the structured logger passed to services, handlers and commands.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error, msg string)
	Fatal(err error, msg string)
	With(fields map[string]interface{}) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// New creates a Logger writing to w, or to stdout when w is nil. The "console"
// format is human readable; any other format writes one JSON object per line.
// An unknown level falls back to info and says so on the new logger.
func New(cfg config.LogConfig, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}

	level, levelErr := parseLevel(cfg.Level)
	zl := zerolog.New(formatWriter(cfg.Format, w)).Level(level).With().Timestamp().Logger()
	if levelErr != nil {
		zl.Warn().Str("level", cfg.Level).Msg("Invalid log level, defaulting to info")
	}
	return &zerologLogger{logger: zl}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

func parseLevel(raw string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, err
	}
	return level, nil
}

func formatWriter(format string, w io.Writer) io.Writer {
	if !strings.EqualFold(format, "console") {
		return w
	}
	// Colors only when writing straight to a terminal stream.
	return zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stdout && w != os.Stderr}
}

func (l *zerologLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zerologLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLogger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs and exits the process.
func (l *zerologLogger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// With returns a child logger that adds fields to every entry.
func (l *zerologLogger) With(fields map[string]interface{}) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(fields).Logger()}
}
