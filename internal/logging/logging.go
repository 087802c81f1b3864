// Package logging sets up the debug log. The terminal is owned by the
// animation, so records go to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// New returns a logger writing debug records to path when enabled, and a
// discarding logger otherwise. The returned closer releases the file.
func New(enabled bool, path string) (*clog.Logger, io.Closer, error) {
	if !enabled {
		return Discard(), nopCloser{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := clog.NewWithOptions(f, clog.Options{
		ReportTimestamp: true,
		Level:           clog.DebugLevel,
		Prefix:          "livemtrx",
	})
	return logger, f, nil
}

// Discard returns a logger that drops everything.
func Discard() *clog.Logger {
	return clog.NewWithOptions(io.Discard, clog.Options{Level: clog.FatalLevel})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
