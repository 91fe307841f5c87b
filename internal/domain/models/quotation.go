package models

import (
	"errors"
	"time"
)

// LineItem is a catalog product or optional accessory as received from the
// catalog webhooks. Unknown catalog fields are ignored.
type LineItem struct {
	Code     string `json:"codigo_producto"`
	Name     string `json:"nombre_del_producto"`
	PriceEUR Amount `json:"pf_eur"`
	WeightKg Amount `json:"peso_kg"`
	VolumeM3 Amount `json:"volumen_m3"`
}

// PricedItem is a line item after markup, discount and currency conversion.
type PricedItem struct {
	Code            string  `json:"codigo" bson:"codigo"`
	Name            string  `json:"nombre" bson:"nombre"`
	BasePriceEUR    float64 `json:"precio_base_eur" bson:"precio_base_eur"`
	FinalPriceEUR   float64 `json:"precio_final_eur" bson:"precio_final_eur"`
	FinalPriceLocal float64 `json:"precio_final_local" bson:"precio_final_local"`
}

// Totals aggregates the goods prices of a quotation.
type Totals struct {
	SubtotalEUR      float64 `json:"subtotal_eur" bson:"subtotal_eur"`
	WithMarkupEUR    float64 `json:"total_con_markup_eur" bson:"total_con_markup_eur"`
	DiscountEUR      float64 `json:"descuento_aplicado_eur" bson:"descuento_aplicado_eur"`
	FinalEUR         float64 `json:"total_final_eur" bson:"total_final_eur"`
	FinalLocal       float64 `json:"total_final_local" bson:"total_final_local"`
	ExchangeRateUsed float64 `json:"tasa_cambio_aplicada" bson:"tasa_cambio_aplicada"`
}

// ShippingBreakdown itemizes the estimated freight cost of a shipment.
// Error is set, and every cost zeroed, when the estimate could not be computed.
type ShippingBreakdown struct {
	BaseCost     float64 `json:"costo_base" bson:"costo_base"`
	VariableCost float64 `json:"costo_variable" bson:"costo_variable"`
	Insurance    float64 `json:"seguro" bson:"seguro"`
	Taxes        float64 `json:"impuestos" bson:"impuestos"`
	Total        float64 `json:"costo_total" bson:"costo_total"`
	Error        string  `json:"error,omitempty" bson:"error,omitempty"`
}

// QuotationParameters echoes the commercial inputs a quotation was built with.
type QuotationParameters struct {
	MarkupPct       float64 `json:"markup_porcentaje" bson:"markup_porcentaje"`
	DiscountPct     float64 `json:"descuento_porcentaje" bson:"descuento_porcentaje"`
	OriginPort      string  `json:"puerto_origen" bson:"puerto_origen"`
	DestinationPort string  `json:"puerto_destino" bson:"puerto_destino"`
}

// Quotation is the full pricing document. It is created once per request and
// never mutated afterwards.
type Quotation struct {
	ID              string              `json:"id_cotizacion" bson:"_id"`
	Date            string              `json:"fecha" bson:"fecha"`
	MainProduct     PricedItem          `json:"producto_principal" bson:"producto_principal"`
	Optionals       []PricedItem        `json:"opcionales" bson:"opcionales"`
	Totals          Totals              `json:"totales" bson:"totales"`
	Shipping        ShippingBreakdown   `json:"envio" bson:"envio"`
	Parameters      QuotationParameters `json:"parametros" bson:"parametros"`
	GrandTotalEUR   float64             `json:"gran_total_eur" bson:"gran_total_eur"`
	GrandTotalLocal float64             `json:"gran_total_local" bson:"gran_total_local"`
	CreatedAt       time.Time           `json:"-" bson:"created_at"`
}

// ErrQuotationExists is returned by sinks asked to store an id twice.
var ErrQuotationExists = errors.New("quotation already stored")

// DateLayout is the format of Quotation.Date.
const DateLayout = "2006-01-02 15:04:05"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// QuotationEnvelope is the response of a quotation request.
type QuotationEnvelope struct {
	Status    string     `json:"status"`
	Quotation *Quotation `json:"cotizacion,omitempty"`
	Message   string     `json:"message,omitempty"`
}
