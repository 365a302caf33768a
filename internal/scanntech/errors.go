package scanntech

import (
	"fmt"
	"strings"
)

// UpstreamError é qualquer falha ao falar com a API: status diferente de
// 200, formato inesperado, timeout ou erro de conexão. É sempre fatal para
// a rodada.
type UpstreamError struct {
	URL     string
	Status  int
	Snippet string
	Err     error
}

func (e *UpstreamError) Error() string {
	var sb strings.Builder
	sb.WriteString("scanntech")
	if e.Status != 0 {
		fmt.Fprintf(&sb, ": status %d", e.Status)
	}
	if e.URL != "" {
		sb.WriteString(" from " + e.URL)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if e.Snippet != "" {
		sb.WriteString(": " + e.Snippet)
	}
	return sb.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }
