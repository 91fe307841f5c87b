package models

// QuotationRequest is the body of POST /api/cotizacion, as sent by the
// quotation front-end.
type QuotationRequest struct {
	MainProduct     LineItem   `json:"productoPrincipal"`
	Optionals       []LineItem `json:"opcionalesSeleccionados"`
	Markup          Amount     `json:"markup"`
	Discount        Amount     `json:"descuento"`
	ExchangeRate    Amount     `json:"tasaCambio"`
	OriginPort      string     `json:"puertoOrigen"`
	DestinationPort string     `json:"puertoDestino"`
}

// PriceRequest is the body of POST /api/calculate.
type PriceRequest struct {
	BasePrice Amount `json:"base_price"`
	Markup    Amount `json:"markup"`
	Discount  Amount `json:"discount"`
}

// PriceResponse answers POST /api/calculate.
type PriceResponse struct {
	BasePrice   float64 `json:"base_price"`
	MarkupPct   float64 `json:"markup_percentage"`
	DiscountPct float64 `json:"discount_percentage"`
	FinalPrice  float64 `json:"final_price"`
}

// ExchangeRequest is the body of POST /api/exchange.
type ExchangeRequest struct {
	PriceEUR     Amount `json:"price_eur"`
	ExchangeRate Amount `json:"exchange_rate"`
}

// ExchangeResponse answers POST /api/exchange.
type ExchangeResponse struct {
	PriceEUR     float64 `json:"price_eur"`
	ExchangeRate float64 `json:"exchange_rate"`
	LocalPrice   float64 `json:"local_price"`
}

// ShippingRequest is the body of POST /api/shipping.
type ShippingRequest struct {
	MainProduct     LineItem   `json:"producto_principal"`
	Optionals       []LineItem `json:"opcionales"`
	OriginPort      string     `json:"puerto_origen"`
	DestinationPort string     `json:"puerto_destino"`
}
