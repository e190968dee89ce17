package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services and handlers receive it by
// injection; there is no package-level default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
