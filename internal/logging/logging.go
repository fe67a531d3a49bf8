// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and an optional log file
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string
}

// Setup configures logrus from opts. Output goes to stderr and, when a
// file is set, to that file as well. The returned func closes the file.
func Setup(opts Options) (func() error, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(defaultString(opts.Level, "info"))))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logrus.SetLevel(level)

	switch opts.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.File == "" {
		logrus.SetOutput(os.Stderr)
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))

	return func() error {
		logrus.SetOutput(os.Stderr)
		return f.Close()
	}, nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
