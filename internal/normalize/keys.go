package normalize

// Nomes de campo do feed de cambios. Cada campo lógico tem uma lista de
// candidatos resolvida na ordem (primeiro que casar vence), porque as
// versões da API usam nomes diferentes.
var (
	IdentityKeys  = []string{"codigoInterno", "id"}
	NameKeys      = []string{"descripcion", "descripcionCorta"}
	StockKeys     = []string{"stock", "stockOnline"}
	BarcodeKeys   = []string{"codigoBarras", "barcode", "ean"}
	TierMinKeys   = []string{"cantidad", "franjaDesde"}
	TierMaxKeys   = []string{"franjaHasta"}
	TierPriceKeys = []string{"precio"}

	// EnvelopeKeys são as chaves onde a resposta pode embrulhar a lista.
	EnvelopeKeys = []string{"items", "articulos", "cambios", "results", "data"}

	// CatalogIDKeys identificam um registro já publicado.
	CatalogIDKeys = []string{"id", "scanntechId"}
)

const (
	KeyOfferFlag      = "esPrecioOferta"
	KeyOfferPrice     = "precioOferta"
	KeyRegularPrice   = "precioRegular"
	KeyCurrentPrice   = "precioVigente"
	KeyActive         = "activo"
	KeyDiscount       = "descuentoPorCantidad"
	KeyDiscountDetail = "detalleDPC"
	KeyDiscountFrom   = "fechaDesde"
	KeyDiscountTo     = "fechaHasta"
)
