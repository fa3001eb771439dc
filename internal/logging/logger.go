package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"codir/internal/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// NewLogger creates a JSON logger for the HTTP service.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewCLILogger writes human readable lines to stderr so stdout stays clean for exported data.
func NewCLILogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// Discard returns a logger that drops everything. Used by tests and library callers
// that do not care about scrape progress.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
