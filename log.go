package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// setupLog sends log output to a file under the user's data directory when
// LINGO_DEBUG is set. Otherwise logging is discarded, since the TUI owns the
// terminal. Long-running serve mode re-enables stderr on its own.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	// Log to file, if set
	if os.Getenv("LINGO_DEBUG") == "" {
		return func() error { return nil }, nil
	}

	logFile, err := logPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		// log disabled
		return func() error { return nil }, nil
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}

func logPath() (string, error) {
	dirs, err := gap.NewScope(gap.User, "lingo").DataDirs()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs[0], "lingo.log"), nil
}
