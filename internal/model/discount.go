package model

// OpenEndedMax é o limite superior de uma faixa sem "franjaHasta".
const OpenEndedMax int64 = 999999999

// Tier é uma faixa de desconto por quantidade.
type Tier struct {
	Max   int64   `json:"max"`
	Min   int64   `json:"min"`
	Price float64 `json:"precio"`
}

// QuantityDiscount é o bloco "dpc" consumido pelo storefront.
type QuantityDiscount struct {
	ValidFrom *string `json:"desde"`
	ValidTo   *string `json:"hasta"`
	Tiers     []Tier  `json:"tramos"`
}
