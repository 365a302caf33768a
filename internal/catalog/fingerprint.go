package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"catalogsync/internal/model"
)

// SortByID ordena o catálogo pela identidade, de forma estável.
func SortByID(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Identity(records[i]) < Identity(records[j])
	})
}

// Fingerprint é o hash do catálogo ordenado por identidade. json.Marshal
// ordena as chaves dos mapas, então o resultado não depende da ordem de
// inserção dos campos.
func Fingerprint(records []model.Record) (string, error) {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	SortByID(sorted)

	b, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b)), nil
}
