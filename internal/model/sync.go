package model

import "time"

// SyncState é o conteúdo do arquivo de estado (last_sync.json).
//
// A variante por tempo decorrido usa LastSync; a variante paginada usa o par
// Date/Time.
type SyncState struct {
	LastSync string `json:"last_sync,omitempty"`
	Date     string `json:"fecha,omitempty"`
	Time     string `json:"hora,omitempty"`
}

// RunReport resume uma execução de sincronização.
type RunReport struct {
	RunID          string    `json:"run_id"`
	Variant        string    `json:"variant"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	OK             bool      `json:"ok"`
	Since          string    `json:"since"`
	Fetched        int       `json:"fetched"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Skipped        int       `json:"skipped"`
	Deactivated    int       `json:"deactivated"`
	CatalogSize    int       `json:"catalog_size"`
	CatalogWritten bool      `json:"catalog_written"`
	Watermark      string    `json:"watermark,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Formatos do watermark aceitos pela API (horário sem zona, em UTC).
const (
	LayoutISO  = "2006-01-02T15:04:05"
	LayoutDate = "2006-01-02"
	LayoutTime = "15:04:05"
)
