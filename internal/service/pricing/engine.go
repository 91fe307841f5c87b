package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/domain/models"
)

// ErrNonFiniteInput is returned when a pricing parameter is NaN or infinite.
var ErrNonFiniteInput = errors.New("non-finite pricing input")

// ErrOverflow is returned when a computed amount cannot be represented.
var ErrOverflow = errors.New("computed amount out of range")

const idTimeLayout = "20060102150405"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// QuoteInput groups the arguments of a full quotation.
type QuoteInput struct {
	MainProduct     models.LineItem
	Optionals       []models.LineItem
	MarkupPct       float64
	DiscountPct     float64
	ExchangeRate    float64
	OriginPort      string
	DestinationPort string
}

// Engine computes prices, shipping estimates and quotations. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	tariff config.TariffConfig
	logger *zap.Logger
	now    func() time.Time
	newID  func(time.Time) string
	loc    *time.Location
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLocation stamps quotation ids and dates in loc instead of the
// process time zone.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// NewEngine builds an engine for the given tariff.
func NewEngine(tariff config.TariffConfig, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	routes := make(map[string]float64, len(tariff.RouteCosts))
	for route, cost := range tariff.RouteCosts {
		routes[strings.ToLower(route)] = cost
	}
	tariff.RouteCosts = routes

	e := &Engine{
		tariff: tariff,
		logger: logger,
		now:    time.Now,
		newID:  quotationID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdjustedPrice applies markup and then discount to basePrice:
// base × (1 + markup/100) × (1 − discount/100), rounded to cents.
// A negative base price yields 0.
func (e *Engine) AdjustedPrice(basePrice, markupPct, discountPct float64) float64 {
	if !finite(basePrice, markupPct, discountPct) {
		e.logger.Error("price calculation received non-finite input",
			zap.Float64("base_price", basePrice),
			zap.Float64("markup", markupPct),
			zap.Float64("discount", discountPct))
		return 0
	}
	if basePrice < 0 {
		e.logger.Error("negative base price clamped to zero", zap.Float64("base_price", basePrice))
		return 0
	}

	price, err := toFloat(e.adjusted(decimal.NewFromFloat(basePrice), markupPct, discountPct))
	if err != nil {
		e.logger.Error("price calculation failed", zap.Error(err))
		return 0
	}
	return price
}

// ConvertCurrency converts an EUR amount to the local currency, rounded to cents.
func (e *Engine) ConvertCurrency(amountEUR, rate float64) float64 {
	if !finite(amountEUR, rate) {
		e.logger.Error("currency conversion received non-finite input",
			zap.Float64("amount_eur", amountEUR),
			zap.Float64("rate", rate))
		return 0
	}

	local, err := toFloat(convert(decimal.NewFromFloat(amountEUR), rate))
	if err != nil {
		e.logger.Error("currency conversion failed", zap.Error(err))
		return 0
	}
	return local
}

// EstimateShipping computes the freight breakdown for the main item and its
// optionals on the origin-destination route. It never fails: a computation
// fault yields a zeroed breakdown carrying the error text.
func (e *Engine) EstimateShipping(main models.LineItem, optionals []models.LineItem, originPort, destinationPort string) models.ShippingBreakdown {
	lines := e.normalize(main, optionals)
	breakdown, err := e.shipping(lines, originPort, destinationPort)
	if err != nil {
		e.logger.Error("shipping estimate failed", zap.Error(err))
		return models.ShippingBreakdown{Error: err.Error()}
	}
	return breakdown
}

// BuildQuotation prices every item, estimates shipping and assembles the
// quotation document. Each item is priced independently with the same
// markup and discount.
func (e *Engine) BuildQuotation(in QuoteInput) (q models.Quotation, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("quotation build panicked", zap.Any("panic", r))
			q, err = models.Quotation{}, fmt.Errorf("build quotation: %v", r)
		}
	}()

	if !finite(in.MarkupPct, in.DiscountPct, in.ExchangeRate) {
		return models.Quotation{}, fmt.Errorf("build quotation: %w", ErrNonFiniteInput)
	}

	lines := e.normalize(in.MainProduct, in.Optionals)

	priced := make([]models.PricedItem, 0, len(lines))
	subtotal := decimal.Zero
	finalEUR := decimal.Zero
	finalLocal := decimal.Zero

	for _, line := range lines {
		adjusted := e.adjusted(line.price, in.MarkupPct, in.DiscountPct).Round(2)
		local := convert(adjusted, in.ExchangeRate)

		item := models.PricedItem{Code: line.code, Name: line.name}
		if item.BasePriceEUR, err = toFloat(line.price); err != nil {
			return models.Quotation{}, fmt.Errorf("price %s: %w", line.code, err)
		}
		if item.FinalPriceEUR, err = toFloat(adjusted); err != nil {
			return models.Quotation{}, fmt.Errorf("price %s: %w", line.code, err)
		}
		if item.FinalPriceLocal, err = toFloat(local); err != nil {
			return models.Quotation{}, fmt.Errorf("convert %s: %w", line.code, err)
		}
		priced = append(priced, item)

		subtotal = subtotal.Add(line.price)
		finalEUR = finalEUR.Add(adjusted)
		finalLocal = finalLocal.Add(local)
	}

	shipping, err := e.shipping(lines, in.OriginPort, in.DestinationPort)
	if err != nil {
		e.logger.Error("shipping estimate failed", zap.Error(err))
		shipping = models.ShippingBreakdown{Error: err.Error()}
	}
	shippingTotal := decimal.NewFromFloat(shipping.Total)

	withMarkup := subtotal.Mul(one.Add(decimal.NewFromFloat(in.MarkupPct).Div(hundred)))
	discount := withMarkup.Mul(decimal.NewFromFloat(in.DiscountPct).Div(hundred))

	amounts := []struct {
		dst *float64
		val decimal.Decimal
	}{
		{&q.Totals.SubtotalEUR, subtotal},
		{&q.Totals.WithMarkupEUR, withMarkup},
		{&q.Totals.DiscountEUR, discount},
		{&q.Totals.FinalEUR, finalEUR},
		{&q.Totals.FinalLocal, finalLocal},
		{&q.GrandTotalEUR, finalEUR.Add(shippingTotal)},
		{&q.GrandTotalLocal, finalLocal.Add(convert(shippingTotal, in.ExchangeRate))},
	}
	for _, a := range amounts {
		if *a.dst, err = toFloat(a.val); err != nil {
			return models.Quotation{}, fmt.Errorf("build quotation totals: %w", err)
		}
	}

	now := e.now()
	if e.loc != nil {
		now = now.In(e.loc)
	}
	q.ID = e.newID(now)
	q.Date = now.Format(models.DateLayout)
	q.CreatedAt = now
	q.MainProduct = priced[0]
	q.Optionals = priced[1:]
	q.Totals.ExchangeRateUsed = in.ExchangeRate
	q.Shipping = shipping
	q.Parameters = models.QuotationParameters{
		MarkupPct:       in.MarkupPct,
		DiscountPct:     in.DiscountPct,
		OriginPort:      in.OriginPort,
		DestinationPort: in.DestinationPort,
	}

	return q, nil
}

// RouteCost resolves the base freight cost of a route, falling back to the
// tariff default for unknown routes.
func (e *Engine) RouteCost(originPort, destinationPort string) (float64, bool) {
	route := strings.ToLower(originPort) + "-" + strings.ToLower(destinationPort)
	if cost, ok := e.tariff.RouteCosts[route]; ok {
		return cost, true
	}
	return e.tariff.DefaultRouteCost, false
}

type line struct {
	code   string
	name   string
	price  decimal.Decimal
	weight decimal.Decimal
	volume decimal.Decimal
}

// normalize resolves the numeric fields of every item once, clamping
// negatives and coercing unusable values to zero.
func (e *Engine) normalize(main models.LineItem, optionals []models.LineItem) []line {
	lines := make([]line, 0, len(optionals)+1)
	for _, item := range append([]models.LineItem{main}, optionals...) {
		lines = append(lines, line{
			code:   item.Code,
			name:   item.Name,
			price:  e.quantity(item.Code, "pf_eur", item.PriceEUR),
			weight: e.quantity(item.Code, "peso_kg", item.WeightKg),
			volume: e.quantity(item.Code, "volumen_m3", item.VolumeM3),
		})
	}
	return lines
}

func (e *Engine) quantity(code, field string, a models.Amount) decimal.Decimal {
	switch {
	case a.Invalid != "":
		e.logger.Warn("non-numeric item field coerced to zero",
			zap.String("codigo", code), zap.String("field", field), zap.String("value", a.Invalid))
		return decimal.Zero
	case !a.Present:
		e.logger.Debug("missing item field defaults to zero", zap.String("codigo", code), zap.String("field", field))
		return decimal.Zero
	case a.Value < 0:
		e.logger.Error("negative item field clamped to zero",
			zap.String("codigo", code), zap.String("field", field), zap.Float64("value", a.Value))
		return decimal.Zero
	}
	return decimal.NewFromFloat(a.Value)
}

func (e *Engine) adjusted(base decimal.Decimal, markupPct, discountPct float64) decimal.Decimal {
	markup := one.Add(decimal.NewFromFloat(markupPct).Div(hundred))
	discount := one.Sub(decimal.NewFromFloat(discountPct).Div(hundred))
	return base.Mul(markup).Mul(discount)
}

func (e *Engine) shipping(lines []line, originPort, destinationPort string) (models.ShippingBreakdown, error) {
	t := e.tariff
	if !finite(t.DefaultRouteCost, t.WeightRate, t.VolumeRate, t.InsuranceRate, t.TaxRate) {
		return models.ShippingBreakdown{}, fmt.Errorf("shipping tariff: %w", ErrNonFiniteInput)
	}

	weight, volume, value := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range lines {
		weight = weight.Add(l.weight)
		volume = volume.Add(l.volume)
		value = value.Add(l.price)
	}

	routeCost, known := e.RouteCost(originPort, destinationPort)
	if !known {
		e.logger.Debug("route not in tariff, using default cost",
			zap.String("origin", originPort), zap.String("destination", destinationPort))
	}
	if !finite(routeCost) {
		return models.ShippingBreakdown{}, fmt.Errorf("route cost: %w", ErrNonFiniteInput)
	}

	base := decimal.NewFromFloat(routeCost).Round(2)
	variable := decimal.Max(
		weight.Mul(decimal.NewFromFloat(t.WeightRate)),
		volume.Mul(decimal.NewFromFloat(t.VolumeRate)),
	).Round(2)
	insurance := value.Mul(decimal.NewFromFloat(t.InsuranceRate)).Round(2)
	taxes := base.Add(variable).Mul(decimal.NewFromFloat(t.TaxRate)).Round(2)
	total := base.Add(variable).Add(insurance).Add(taxes)

	var b models.ShippingBreakdown
	for _, a := range []struct {
		dst *float64
		val decimal.Decimal
	}{
		{&b.BaseCost, base},
		{&b.VariableCost, variable},
		{&b.Insurance, insurance},
		{&b.Taxes, taxes},
		{&b.Total, total},
	} {
		var err error
		if *a.dst, err = toFloat(a.val); err != nil {
			return models.ShippingBreakdown{}, fmt.Errorf("shipping: %w", err)
		}
	}
	return b, nil
}

func convert(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(2)
}

// toFloat rounds to cents and rejects values float64 cannot hold.
func toFloat(d decimal.Decimal) (float64, error) {
	f := d.Round(2).InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, ErrOverflow
	}
	return f, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func quotationID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("COT-%s-%s", t.Format(idTimeLayout), strings.ToUpper(suffix))
}
