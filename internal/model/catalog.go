package model

// Record é um produto do catálogo publicado (products.json).
// Mantemos como mapa para não perder campos que só o storefront conhece.
type Record map[string]any

// Change é um registro cru do feed de cambios da Scanntech.
type Change map[string]any

// Clone devolve uma cópia rasa do registro.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Chaves do registro do catálogo. As versões em espanhol são espelhos
// usados pelo frontend antigo.
const (
	KeyID          = "id"
	KeyScanntechID = "scanntechId"
	KeyName        = "name"
	KeyNombre      = "nombre"
	KeyPrice       = "price"
	KeyPrecio      = "precio"
	KeyOffer       = "offer"
	KeyOferta      = "oferta"
	KeyStock       = "stock"
	KeyCategory    = "category"
	KeyCategoria   = "categoria"
	KeySubcategory = "subcategory"
	KeySubcat      = "subcategoria"
	KeyImg         = "img"
	KeyImagen      = "imagen"
	KeyImagenURL   = "imagen_url"
	KeyDestacado   = "destacado"
	KeyBarcode     = "barcode"
	KeyActivo      = "activo"
	KeyDPC         = "dpc"
	KeyUpdatedAt   = "updatedAt"
)

// DefaultCategory é a categoria dos produtos criados pela sincronização.
const DefaultCategory = "Nuevos"
