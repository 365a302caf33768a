// Package discount converte o "descuentoPorCantidad" (DPC) da Scanntech no
// bloco de faixas consumido pelo storefront.
package discount

import (
	"sort"

	"catalogsync/internal/model"
	"catalogsync/internal/normalize"
)

// Result é o DPC normalizado mais as linhas descartadas.
type Result struct {
	normalize.Opt[model.QuantityDiscount]
	SkippedRows int
}

// Parse lê o DPC de um registro de mudança.
//
//   - Absent: a chave não veio; o DPC existente não deve ser tocado.
//   - ExplicitNull: veio null, um valor que não é objeto ou nenhuma faixa
//     válida; o DPC existente deve ser removido.
//   - Present: um bloco válido que substitui o existente.
func Parse(change model.Change) Result {
	raw, ok := change[normalize.KeyDiscount]
	if !ok {
		return Result{Opt: normalize.None[model.QuantityDiscount]()}
	}

	block, ok := raw.(map[string]any)
	if !ok {
		return Result{Opt: normalize.Null[model.QuantityDiscount]()}
	}

	rows, _ := block[normalize.KeyDiscountDetail].([]any)
	if len(rows) == 0 {
		return Result{Opt: normalize.Null[model.QuantityDiscount]()}
	}

	var (
		tiers   []model.Tier
		skipped int
	)
	for _, r := range rows {
		tier, ok := parseTier(r)
		if !ok {
			skipped++
			continue
		}
		tiers = append(tiers, tier)
	}

	if len(tiers) == 0 {
		return Result{Opt: normalize.Null[model.QuantityDiscount](), SkippedRows: skipped}
	}

	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Min < tiers[j].Min })

	return Result{
		Opt: normalize.Some(model.QuantityDiscount{
			ValidFrom: optionalString(block[normalize.KeyDiscountFrom]),
			ValidTo:   optionalString(block[normalize.KeyDiscountTo]),
			Tiers:     tiers,
		}),
		SkippedRows: skipped,
	}
}

func parseTier(raw any) (model.Tier, bool) {
	row, ok := raw.(map[string]any)
	if !ok {
		return model.Tier{}, false
	}

	// Algumas versões mandam "cantidad", outras "franjaDesde/franjaHasta"
	minRaw, _ := normalize.First(row, normalize.TierMinKeys...)
	lo, ok := normalize.ToInt(minRaw)
	if !ok {
		return model.Tier{}, false
	}

	price, ok := normalize.ToFloatLocale(normalize.Lookup(row, normalize.TierPriceKeys...).Value)
	if !ok {
		return model.Tier{}, false
	}

	hi := model.OpenEndedMax
	if f := normalize.Lookup(row, normalize.TierMaxKeys...); f.State == normalize.Present {
		// franjaHasta ilegível também é tratado como faixa aberta
		if n, ok := normalize.ToInt(f.Value); ok {
			hi = n
		}
	}

	return model.Tier{Min: lo, Max: hi, Price: price}, true
}

func optionalString(v any) *string {
	s := normalize.ToString(v)
	if s == "" {
		return nil
	}
	return &s
}
