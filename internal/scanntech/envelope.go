package scanntech

import (
	"catalogsync/internal/model"
	"catalogsync/internal/normalize"
)

// ExtractItems aceita uma lista pura ou um objeto que embrulha a lista numa
// das chaves conhecidas, testadas em ordem. Itens que não são objetos são
// descartados; raw é o tamanho da lista antes do descarte, que é o que
// decide se a página veio cheia.
func ExtractItems(data any) (items []model.Change, raw int, err error) {
	switch v := data.(type) {
	case []any:
		return toChanges(v), len(v), nil
	case map[string]any:
		for _, k := range normalize.EnvelopeKeys {
			if list, ok := v[k].([]any); ok {
				return toChanges(list), len(list), nil
			}
		}
	}
	return nil, 0, ErrUnexpectedShape
}

func toChanges(list []any) []model.Change {
	out := make([]model.Change, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, model.Change(obj))
		}
	}
	return out
}
