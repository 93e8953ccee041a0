package logger

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// stdout carries the converter's own output, so every log line goes to
// stderr.
var logger = New(os.Stderr, zerolog.InfoLevel, false)

// New builds a logger writing to w. json selects raw JSON lines instead of
// the console format.
func New(w io.Writer, level zerolog.Level, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Init replaces the package logger. level is a zerolog level name such as
// "debug" or "warn".
func Init(w io.Writer, level string, json bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger = New(w, lvl, json)
	return nil
}

// Logger returns the package logger for injection into components.
func Logger() zerolog.Logger {
	return logger
}

func Info(msg string) {
	logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Error(msg string) {
	logger.Error().Msg(msg)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}
