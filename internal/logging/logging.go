// Package logging sets up the file-backed logger. The TUI owns the
// terminal, so nothing may ever log to stdout or stderr.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Open returns a logger appending to the given file. An empty path or
// an unopenable file yields a disabled logger rather than an error; a
// broken log destination must not keep the application from running.
func Open(path string) (zerolog.Logger, io.Closer) {
	if path == "" {
		return zerolog.Nop(), nopCloser{}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
	if err != nil {
		return zerolog.Nop(), nopCloser{}
	}
	logger := zerolog.New(zerolog.SyncWriter(f)).With().Timestamp().Logger()
	return logger, f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
