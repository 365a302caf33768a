// Package observability concentra logs e métricas.
package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger cria o logger JSON usado por todos os binários.
func NewLogger(level slog.Level) *slog.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
