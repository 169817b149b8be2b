// Package logging builds the diagnostic logger. User-facing progress goes
// through package output; this logger carries debug detail and warnings.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Level   string // logrus level name; empty means "info"
	Verbose bool   // forces debug level
	JSON    bool
	Color   bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:    !opts.Color,
			ForceColors:      opts.Color,
			FullTimestamp:    true,
			TimestampFormat:  "15:04:05",
			QuoteEmptyFields: true,
		})
	}
	return logger, nil
}
