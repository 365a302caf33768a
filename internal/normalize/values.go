// Package normalize converte os valores frouxos do feed da Scanntech
// (strings, números, nulos) em formas canônicas. Todas as funções são
// totais: nunca entram em pânico e devolvem valor-ou-ausente.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToFloat converte x em float64. Booleanos, nulos e textos inválidos são
// considerados ausentes.
func ToFloat(x any) (float64, bool) {
	switch v := x.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return numeric(x)
	}
}

// ToFloatLocale é como ToFloat, mas textos passam antes por cleanNumeric
// (símbolos de moeda e separadores "." / ",").
func ToFloatLocale(x any) (float64, bool) {
	s, ok := x.(string)
	if !ok {
		return numeric(x)
	}
	s = cleanNumeric(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return finite(d.InexactFloat64())
}

// ToInt converte x em int64; floats são truncados em direção a zero.
func ToInt(x any) (int64, bool) {
	switch v := x.(type) {
	case nil, bool:
		return 0, false
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		return truncate(ToFloat(string(v)))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		return truncate(ToFloat(s))
	default:
		return truncate(numeric(x))
	}
}

// ToString devolve a forma textual (aparada) de x; nulo vira "".
func ToString(x any) string {
	switch v := x.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}

// Truthy interpreta flags do upstream ("esPrecioOferta", "activo").
func Truthy(x any) bool {
	switch v := x.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "si", "sí", "s", "yes", "verdadero":
			return true
		}
		return false
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		f, ok := numeric(x)
		return ok && f != 0
	}
}

func numeric(x any) (float64, bool) {
	switch v := x.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truncate(f float64, ok bool) (int64, bool) {
	if !ok || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

var currencyReplacer = strings.NewReplacer("U$S", "", "US$", "", "UYU", "", "$", "", " ", "", "\u00a0", "")

// cleanNumeric remove moeda e resolve separadores:
//   - com "." e "," o último é o decimal ("1.234,50" e "1,234.50");
//   - só "," → decimal se aparece uma vez ("12,5"), senão milhar;
//   - só "." → milhar se aparece mais de uma vez ou se todo grupo depois
//     dele tem três dígitos e a parte inteira não é zero ("1.500").
func cleanNumeric(s string) string {
	s = currencyReplacer.Replace(strings.TrimSpace(s))
	dots, commas := strings.Count(s, "."), strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	case dots == 1:
		intPart, frac, _ := strings.Cut(s, ".")
		if len(frac) == 3 && allDigits(frac) && strings.Trim(intPart, "-+0") != "" {
			return intPart + frac
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
