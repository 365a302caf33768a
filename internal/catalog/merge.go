// Package catalog reconcilia o catálogo publicado com o feed de cambios.
package catalog

import (
	"time"

	"catalogsync/internal/model"
	"catalogsync/internal/normalize"
)

// Result é o novo estado do catálogo e os contadores da rodada.
type Result struct {
	Catalog      []model.Record
	Created      int
	Updated      int
	Skipped      int
	Deactivated  int
	SkippedTiers int
}

// Identity devolve a identidade estável de um registro publicado.
func Identity(r model.Record) string {
	return normalize.FirstString(r, normalize.CatalogIDKeys...)
}

// Merge aplica as mudanças sobre o catálogo existente. Registros conhecidos
// recebem sobrescrita conservadora campo a campo; identidades novas viram
// registros mínimos. Os registros de entrada não são alterados.
func Merge(existing []model.Record, changes []model.Change, now time.Time) Result {
	res := Result{Catalog: make([]model.Record, len(existing), len(existing)+len(changes))}
	copy(res.Catalog, existing)

	index := make(map[string]int, len(existing))
	for i, r := range res.Catalog {
		if id := Identity(r); id != "" {
			index[id] = i
		}
	}

	ts := now.UTC().Truncate(time.Second).Format(time.RFC3339)

	for _, c := range changes {
		in, ok := normalizeChange(c)
		if !ok {
			res.Skipped++
			continue
		}
		res.SkippedTiers += in.discount.SkippedRows

		if pos, ok := index[in.id]; ok {
			rec, deactivated := update(res.Catalog[pos], in, ts)
			res.Catalog[pos] = rec
			res.Updated++
			if deactivated {
				res.Deactivated++
			}
			continue
		}

		res.Catalog = append(res.Catalog, create(in, ts))
		index[in.id] = len(res.Catalog) - 1
		res.Created++
	}

	return res
}

// update só sobrescreve o que veio preenchido. O DPC segue os três estados
// e o updatedAt é sempre renovado.
func update(existing model.Record, in incoming, ts string) (model.Record, bool) {
	out := existing.Clone()

	if in.name != "" {
		out[model.KeyName] = in.name
		out[model.KeyNombre] = in.name
	}
	if in.price.State == normalize.Present {
		out[model.KeyPrice] = in.price.Value
		out[model.KeyPrecio] = in.price.Value
	}
	if in.offer.State == normalize.Present {
		out[model.KeyOffer] = in.offer.Value
		out[model.KeyOferta] = in.offer.Value
	}
	if in.stock.State == normalize.Present {
		out[model.KeyStock] = in.stock.Value
	}
	if in.barcode != "" {
		out[model.KeyBarcode] = in.barcode
	}

	deactivated := false
	if in.active.State == normalize.Present {
		deactivated = wasActive(existing) && !in.active.Value
		out[model.KeyActivo] = in.active.Value
	}

	switch in.discount.State {
	case normalize.Present:
		out[model.KeyDPC] = in.discount.Value
	case normalize.ExplicitNull:
		delete(out, model.KeyDPC)
	}

	out[model.KeyUpdatedAt] = ts
	return out, deactivated
}

func create(in incoming, ts string) model.Record {
	name := in.name
	if name == "" {
		name = in.id
	}
	price := 0.0
	if in.price.State == normalize.Present {
		price = in.price.Value
	}
	stock := 0.0
	if in.stock.State == normalize.Present {
		stock = in.stock.Value
	}

	rec := model.Record{
		model.KeyID:          in.id,
		model.KeyScanntechID: in.id,
		model.KeyName:        name,
		model.KeyNombre:      name,
		model.KeyPrice:       price,
		model.KeyPrecio:      price,
		model.KeyOffer:       in.offer.Value,
		model.KeyOferta:      in.offer.Value,
		model.KeyCategory:    model.DefaultCategory,
		model.KeyCategoria:   model.DefaultCategory,
		model.KeySubcategory: "",
		model.KeySubcat:      "",
		model.KeyImg:         "",
		model.KeyImagen:      "",
		model.KeyImagenURL:   "",
		model.KeyStock:       stock,
		model.KeyDestacado:   false,
		model.KeyUpdatedAt:   ts,
	}

	if in.barcode != "" {
		rec[model.KeyBarcode] = in.barcode
	}
	if in.active.State == normalize.Present {
		rec[model.KeyActivo] = in.active.Value
	}
	// num registro novo não há DPC para apagar
	if in.discount.State == normalize.Present {
		rec[model.KeyDPC] = in.discount.Value
	}

	return rec
}

func wasActive(r model.Record) bool {
	v, ok := r[model.KeyActivo]
	if !ok || v == nil {
		return true
	}
	return normalize.Truthy(v)
}
