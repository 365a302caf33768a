package catalog

import (
	"catalogsync/internal/discount"
	"catalogsync/internal/model"
	"catalogsync/internal/normalize"
)

// incoming é um registro de mudança já normalizado.
type incoming struct {
	id       string
	name     string
	price    normalize.Opt[float64]
	offer    normalize.Opt[bool]
	stock    normalize.Opt[float64]
	barcode  string
	active   normalize.Opt[bool]
	discount discount.Result
}

func normalizeChange(c model.Change) (incoming, bool) {
	id := normalize.FirstString(c, normalize.IdentityKeys...)
	if id == "" {
		return incoming{}, false
	}

	in := incoming{
		id:       id,
		name:     normalize.FirstString(c, normalize.NameKeys...),
		price:    PickPrice(c),
		stock:    firstNumber(c, normalize.StockKeys...),
		offer:    flag(normalize.Lookup(c, normalize.KeyOfferFlag)),
		barcode:  normalize.FirstString(c, normalize.BarcodeKeys...),
		active:   flag(normalize.Lookup(c, normalize.KeyActive)),
		discount: discount.Parse(c),
	}

	return in, true
}

// PickPrice aplica a regra de preço: oferta quando a flag está ligada e o
// preço de oferta é numérico, senão o regular, senão o vigente.
func PickPrice(c model.Change) normalize.Opt[float64] {
	if normalize.Truthy(c[normalize.KeyOfferFlag]) {
		if p, ok := normalize.ToFloatLocale(c[normalize.KeyOfferPrice]); ok {
			return normalize.Some(p)
		}
	}
	if p, ok := normalize.ToFloatLocale(c[normalize.KeyRegularPrice]); ok {
		return normalize.Some(p)
	}
	if p, ok := normalize.ToFloatLocale(c[normalize.KeyCurrentPrice]); ok {
		return normalize.Some(p)
	}
	return normalize.None[float64]()
}

// firstNumber prefere o primeiro valor numérico não zero; um zero explícito
// só vale se nenhum candidato trouxer outro número.
func firstNumber(c model.Change, keys ...string) normalize.Opt[float64] {
	zero := normalize.None[float64]()
	for _, k := range keys {
		f, ok := normalize.ToFloatLocale(c[k])
		if !ok {
			continue
		}
		if f != 0 {
			return normalize.Some(f)
		}
		if zero.State == normalize.Absent {
			zero = normalize.Some(f)
		}
	}
	return zero
}

func flag(f normalize.Field) normalize.Opt[bool] {
	switch f.State {
	case normalize.Present:
		return normalize.Some(normalize.Truthy(f.Value))
	case normalize.ExplicitNull:
		return normalize.Null[bool]()
	}
	return normalize.None[bool]()
}
