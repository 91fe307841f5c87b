package quotation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/domain/models"
	"github.com/ecoalliance/cotizador/internal/metrics"
	"github.com/ecoalliance/cotizador/internal/service/pricing"
)

// ErrPersist wraps failures of the primary quotation sink.
var ErrPersist = errors.New("persist quotation")

// Sink stores generated quotations.
type Sink interface {
	SaveQuotation(ctx context.Context, envelope models.QuotationEnvelope) error
}

// NamedSink is a best-effort mirror. Its failures are logged, never returned.
type NamedSink struct {
	Name string
	Sink Sink
}

// Calculator describes the operations the HTTP layer and CLI can perform.
type Calculator interface {
	Price(req models.PriceRequest) models.PriceResponse
	Exchange(req models.ExchangeRequest) models.ExchangeResponse
	Shipping(req models.ShippingRequest) models.ShippingBreakdown
	Build(req models.QuotationRequest) models.QuotationEnvelope
	Process(ctx context.Context, req models.QuotationRequest) (models.QuotationEnvelope, error)
}

// Service applies request fallbacks, runs the pricing engine and persists
// the resulting quotations.
type Service struct {
	engine   *pricing.Engine
	defaults config.PricingConfig
	primary  Sink
	mirrors  []NamedSink
	logger   *zap.Logger
}

// NewService wires a new quotation service. primary may be nil when
// quotations are not persisted (CLI usage).
func NewService(engine *pricing.Engine, defaults config.PricingConfig, primary Sink, logger *zap.Logger, mirrors ...NamedSink) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:   engine,
		defaults: defaults,
		primary:  primary,
		mirrors:  mirrors,
		logger:   logger,
	}
}

// Price computes the adjusted price of a single base price.
func (s *Service) Price(req models.PriceRequest) models.PriceResponse {
	base := s.param("base_price", req.BasePrice, 0)
	markup := s.param("markup", req.Markup, s.defaults.DefaultMarkup)
	discount := s.param("discount", req.Discount, s.defaults.DefaultDiscount)

	return models.PriceResponse{
		BasePrice:   base,
		MarkupPct:   markup,
		DiscountPct: discount,
		FinalPrice:  s.engine.AdjustedPrice(base, markup, discount),
	}
}

// Exchange converts an EUR price to the local currency.
func (s *Service) Exchange(req models.ExchangeRequest) models.ExchangeResponse {
	price := s.param("price_eur", req.PriceEUR, 0)
	rate := s.param("exchange_rate", req.ExchangeRate, s.defaults.DefaultExchangeRate)

	return models.ExchangeResponse{
		PriceEUR:     price,
		ExchangeRate: rate,
		LocalPrice:   s.engine.ConvertCurrency(price, rate),
	}
}

// Shipping estimates freight for the requested items and route.
func (s *Service) Shipping(req models.ShippingRequest) models.ShippingBreakdown {
	origin, destination := s.ports(req.OriginPort, req.DestinationPort)
	return s.engine.EstimateShipping(req.MainProduct, req.Optionals, origin, destination)
}

// Build computes a quotation without persisting it.
func (s *Service) Build(req models.QuotationRequest) models.QuotationEnvelope {
	origin, destination := s.ports(req.OriginPort, req.DestinationPort)

	q, err := s.engine.BuildQuotation(pricing.QuoteInput{
		MainProduct:     req.MainProduct,
		Optionals:       req.Optionals,
		MarkupPct:       s.param("markup", req.Markup, s.defaults.DefaultMarkup),
		DiscountPct:     s.param("descuento", req.Discount, s.defaults.DefaultDiscount),
		ExchangeRate:    s.param("tasaCambio", req.ExchangeRate, s.defaults.DefaultExchangeRate),
		OriginPort:      origin,
		DestinationPort: destination,
	})
	if err != nil {
		s.logger.Error("quotation generation failed", zap.Error(err))
		metrics.QuotationsTotal.WithLabelValues(models.StatusError).Inc()
		return models.QuotationEnvelope{Status: models.StatusError, Message: err.Error()}
	}

	s.logger.Info("quotation generated",
		zap.String("id", q.ID),
		zap.String("main_product", q.MainProduct.Code),
		zap.Int("optionals", len(q.Optionals)),
		zap.Float64("gran_total_eur", q.GrandTotalEUR))
	metrics.QuotationsTotal.WithLabelValues(models.StatusSuccess).Inc()
	metrics.QuotationGrandTotalEUR.Observe(q.GrandTotalEUR)

	return models.QuotationEnvelope{Status: models.StatusSuccess, Quotation: &q}
}

// Process builds a quotation and stores it. Error envelopes are returned
// without being stored. A primary sink failure is returned as ErrPersist;
// mirror failures are only logged.
func (s *Service) Process(ctx context.Context, req models.QuotationRequest) (models.QuotationEnvelope, error) {
	envelope := s.Build(req)
	if envelope.Status != models.StatusSuccess {
		return envelope, nil
	}

	if s.primary != nil {
		if err := s.primary.SaveQuotation(ctx, envelope); err != nil {
			metrics.SinkFailuresTotal.WithLabelValues("primary").Inc()
			return models.QuotationEnvelope{Status: models.StatusError, Message: err.Error()},
				fmt.Errorf("%w %s: %w", ErrPersist, envelope.Quotation.ID, err)
		}
	}

	for _, mirror := range s.mirrors {
		if err := mirror.Sink.SaveQuotation(ctx, envelope); err != nil {
			metrics.SinkFailuresTotal.WithLabelValues(mirror.Name).Inc()
			s.logger.Error("quotation mirror failed",
				zap.String("sink", mirror.Name),
				zap.String("id", envelope.Quotation.ID),
				zap.Error(err))
		}
	}

	return envelope, nil
}

// param resolves a numeric request parameter, falling back when the value
// is absent or unusable.
func (s *Service) param(name string, a models.Amount, fallback float64) float64 {
	if a.Invalid != "" {
		s.logger.Warn("invalid numeric parameter, using default",
			zap.String("param", name),
			zap.String("value", a.Invalid),
			zap.Float64("default", fallback))
		return fallback
	}
	return a.Or(fallback)
}

func (s *Service) ports(origin, destination string) (string, string) {
	if origin == "" {
		origin = s.defaults.DefaultOriginPort
	}
	if destination == "" {
		destination = s.defaults.DefaultDestinationPort
	}
	return origin, destination
}
