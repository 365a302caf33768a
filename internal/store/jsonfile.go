// Package store lê e grava os dois documentos JSON da sincronização: o
// catálogo publicado e o estado (watermark).
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"catalogsync/internal/model"
)

// ErrNotArray indica um arquivo de catálogo que não é uma lista JSON.
var ErrNotArray = errors.New("catalog file is not a JSON array")

// LoadCatalog lê o catálogo. Arquivo inexistente é um catálogo vazio.
func LoadCatalog(path string) ([]model.Record, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []model.Record{}, nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	// json.Number preserva os números existentes como estão no arquivo
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotArray)
	}

	records := make([]model.Record, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: item %d is not an object: %w", path, i, ErrNotArray)
		}
		records = append(records, model.Record(obj))
	}
	return records, nil
}

// SaveCatalog grava o catálogo indentado, de forma atômica.
func SaveCatalog(path string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	return writeJSON(path, records)
}

// LoadState lê o estado; ausente devolve ok=false.
func LoadState(path string) (model.SyncState, bool, error) {
	var st model.SyncState
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("read state %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return st, false, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, false, fmt.Errorf("decode state %s: %w", path, err)
	}
	if st == (model.SyncState{}) {
		return st, false, nil
	}
	return st, true, nil
}

// SaveState grava o estado.
func SaveState(path string, st model.SyncState) error {
	return writeJSON(path, st)
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, v); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
