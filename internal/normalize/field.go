package normalize

import (
	"encoding/json"
	"strings"
)

// Presence distingue "o upstream não mandou o campo" de "mandou null".
type Presence int

const (
	Absent Presence = iota
	ExplicitNull
	Present
)

func (p Presence) String() string {
	switch p {
	case ExplicitNull:
		return "null"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Field é o resultado cru de Lookup.
type Field struct {
	State Presence
	Value any
}

// Opt é um valor normalizado com a mesma semântica de três estados.
type Opt[T any] struct {
	State Presence
	Value T
}

func None[T any]() Opt[T] { return Opt[T]{State: Absent} }
func Null[T any]() Opt[T] { return Opt[T]{State: ExplicitNull} }
func Some[T any](v T) Opt[T] { return Opt[T]{State: Present, Value: v} }

// Lookup devolve o primeiro candidato presente no registro, mesmo que null.
func Lookup(rec map[string]any, keys ...string) Field {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if v == nil {
			return Field{State: ExplicitNull}
		}
		return Field{State: Present, Value: v}
	}
	return Field{State: Absent}
}

// First devolve o primeiro candidato não vazio (nem null, nem "", nem zero,
// nem false).
func First(rec map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && !blank(v) {
			return v, true
		}
	}
	return nil, false
}

// FirstString é First convertido com ToString.
func FirstString(rec map[string]any, keys ...string) string {
	v, ok := First(rec, keys...)
	if !ok {
		return ""
	}
	return ToString(v)
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return strings.TrimSpace(x) == ""
	case json.Number, float64, float32, int, int32, int64:
		f, ok := numeric(x)
		return ok && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
