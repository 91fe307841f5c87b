package pricing

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/domain/models"
	"github.com/ecoalliance/cotizador/internal/service/reporting"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultPricing().Tariff, nil)
}

func chipper() (models.LineItem, []models.LineItem) {
	main := models.LineItem{
		Code:     "A141XL",
		Name:     "Chipeadora PTO A141XL",
		PriceEUR: models.Num(22500),
		WeightKg: models.Num(850),
		VolumeM3: models.Num(4.5),
	}
	optionals := []models.LineItem{
		{Code: "16521", Name: "Eje PTO con Disco Volante", PriceEUR: models.Num(1250), WeightKg: models.Num(45), VolumeM3: models.Num(0.2)},
		{Code: "16902", Name: "Eje PTO con Disco Volante y Embrague", PriceEUR: models.Num(1850), WeightKg: models.Num(52), VolumeM3: models.Num(0.25)},
	}
	return main, optionals
}

func TestAdjustedPrice(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name                   string
		base, markup, discount float64
		want                   float64
	}{
		{"markup then discount", 100, 20, 5, 114},
		{"no adjustments", 100, 0, 0, 100},
		{"full discount", 100, 20, 100, 0},
		{"fractional", 22500, 18.5, 3, 25862.63},
		{"cents rounding", 0.1, 0, 0, 0.1},
		{"negative base clamps", -50, 20, 5, 0},
		{"zero base", 0, 20, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.AdjustedPrice(tc.base, tc.markup, tc.discount); got != tc.want {
				t.Fatalf("AdjustedPrice(%v,%v,%v) = %v, want %v", tc.base, tc.markup, tc.discount, got, tc.want)
			}
		})
	}
}

func TestAdjustedPrice_Monotonic(t *testing.T) {
	e := newTestEngine()

	prev := e.AdjustedPrice(1234.56, 0, 10)
	for markup := 1.0; markup <= 200; markup += 7.5 {
		got := e.AdjustedPrice(1234.56, markup, 10)
		if got < prev {
			t.Fatalf("price decreased when markup rose to %v: %v < %v", markup, got, prev)
		}
		prev = got
	}

	prev = e.AdjustedPrice(1234.56, 20, 0)
	for discount := 2.5; discount <= 100; discount += 2.5 {
		got := e.AdjustedPrice(1234.56, 20, discount)
		if got > prev {
			t.Fatalf("price increased when discount rose to %v: %v > %v", discount, got, prev)
		}
		prev = got
	}
}

func TestAdjustedPrice_NonFinite(t *testing.T) {
	e := newTestEngine()
	if got := e.AdjustedPrice(math.NaN(), 20, 5); got != 0 {
		t.Fatalf("expected 0 for NaN base, got %v", got)
	}
	if got := e.AdjustedPrice(100, math.Inf(1), 5); got != 0 {
		t.Fatalf("expected 0 for infinite markup, got %v", got)
	}
}

func TestConvertCurrency(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		amount, rate, want float64
	}{
		{100, 950.25, 95025},
		{114, 950, 108300},
		{0.333, 3, 1},
		{12.345, 1, 12.35},
		{0, 950, 0},
	}
	for _, tc := range cases {
		if got := e.ConvertCurrency(tc.amount, tc.rate); got != tc.want {
			t.Errorf("ConvertCurrency(%v,%v) = %v, want %v", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestEstimateShipping_GreaterOfWeightAndVolume(t *testing.T) {
	e := newTestEngine()
	main, optionals := chipper()

	got := e.EstimateShipping(main, optionals, "Valencia", "VALPARAISO")
	want := models.ShippingBreakdown{
		BaseCost:     2500,
		VariableCost: 4735,
		Insurance:    256,
		Taxes:        1374.65,
		Total:        8865.65,
	}
	if got != want {
		t.Fatalf("unexpected breakdown:\n got %+v\nwant %+v", got, want)
	}
}

func TestEstimateShipping_VolumeDominates(t *testing.T) {
	e := newTestEngine()
	light := models.LineItem{Code: "X", PriceEUR: models.Num(1000), WeightKg: models.Num(10), VolumeM3: models.Num(3)}

	got := e.EstimateShipping(light, nil, "barcelona", "sanantonio")
	if got.VariableCost != 300 {
		t.Fatalf("variable cost = %v, want 300", got.VariableCost)
	}
	if got.BaseCost != 2500 {
		t.Fatalf("base cost = %v, want 2500", got.BaseCost)
	}
	// tax 19% of 2800 = 532, insurance 10
	if got.Total != 2500+300+10+532 {
		t.Fatalf("total = %v", got.Total)
	}
}

func TestEstimateShipping_UnknownRouteUsesDefault(t *testing.T) {
	e := newTestEngine()
	main, _ := chipper()

	got := e.EstimateShipping(main, nil, "hamburg", "callao")
	if got.BaseCost != 3000 {
		t.Fatalf("base cost = %v, want 3000", got.BaseCost)
	}
	if got.Error != "" {
		t.Fatalf("unexpected error %q", got.Error)
	}
}

func TestEstimateShipping_MissingAndInvalidFieldsCountAsZero(t *testing.T) {
	e := newTestEngine()
	item := models.LineItem{
		Code:     "A",
		PriceEUR: models.Amount{Invalid: "n/a"},
		WeightKg: models.Num(-10),
	}

	got := e.EstimateShipping(item, nil, "valencia", "sanantonio")
	want := models.ShippingBreakdown{BaseCost: 2400, Taxes: 456, Total: 2856}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEstimateShipping_FaultYieldsZeroedBreakdown(t *testing.T) {
	tariff := config.DefaultPricing().Tariff
	tariff.WeightRate = math.Inf(1)
	e := NewEngine(tariff, nil)
	main, optionals := chipper()

	got := e.EstimateShipping(main, optionals, "valencia", "valparaiso")
	if got.Error == "" {
		t.Fatal("expected error description in breakdown")
	}
	if got.BaseCost != 0 || got.VariableCost != 0 || got.Insurance != 0 || got.Taxes != 0 || got.Total != 0 {
		t.Fatalf("expected zeroed breakdown, got %+v", got)
	}
}

func TestRouteCost_ConfiguredTable(t *testing.T) {
	tariff := config.DefaultPricing().Tariff
	tariff.RouteCosts = map[string]float64{"Bilbao-Callao": 4100}
	e := NewEngine(tariff, nil)

	if cost, ok := e.RouteCost("BILBAO", "callao"); !ok || cost != 4100 {
		t.Fatalf("RouteCost = %v,%v, want 4100,true", cost, ok)
	}
	if cost, ok := e.RouteCost("valencia", "valparaiso"); ok || cost != 3000 {
		t.Fatalf("RouteCost = %v,%v, want default 3000,false", cost, ok)
	}
}

func TestBuildQuotation(t *testing.T) {
	e := newTestEngine()
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	main, optionals := chipper()
	q, err := e.BuildQuotation(QuoteInput{
		MainProduct:     main,
		Optionals:       optionals,
		MarkupPct:       20,
		DiscountPct:     5,
		ExchangeRate:    950,
		OriginPort:      "valencia",
		DestinationPort: "valparaiso",
	})
	if err != nil {
		t.Fatalf("build quotation: %v", err)
	}

	if !strings.HasPrefix(q.ID, "COT-20250314092653-") {
		t.Fatalf("unexpected id %q", q.ID)
	}
	if q.Date != "2025-03-14 09:26:53" {
		t.Fatalf("unexpected date %q", q.Date)
	}

	wantMain := models.PricedItem{Code: "A141XL", Name: "Chipeadora PTO A141XL", BasePriceEUR: 22500, FinalPriceEUR: 25650, FinalPriceLocal: 24367500}
	if q.MainProduct != wantMain {
		t.Fatalf("main product:\n got %+v\nwant %+v", q.MainProduct, wantMain)
	}
	if len(q.Optionals) != 2 {
		t.Fatalf("expected 2 optionals, got %d", len(q.Optionals))
	}
	if q.Optionals[0].FinalPriceEUR != 1425 || q.Optionals[1].FinalPriceEUR != 2109 {
		t.Fatalf("unexpected optional prices %+v", q.Optionals)
	}

	wantTotals := models.Totals{
		SubtotalEUR:      25600,
		WithMarkupEUR:    30720,
		DiscountEUR:      1536,
		FinalEUR:         29184,
		FinalLocal:       27724800,
		ExchangeRateUsed: 950,
	}
	if q.Totals != wantTotals {
		t.Fatalf("totals:\n got %+v\nwant %+v", q.Totals, wantTotals)
	}

	if q.Shipping.Total != 8865.65 {
		t.Fatalf("shipping total = %v", q.Shipping.Total)
	}
	if q.GrandTotalEUR != 38049.65 {
		t.Fatalf("grand total eur = %v", q.GrandTotalEUR)
	}
	// 27724800 + 8865.65*950 (8422367.5)
	if q.GrandTotalLocal != 36147167.5 {
		t.Fatalf("grand total local = %v", q.GrandTotalLocal)
	}

	wantParams := models.QuotationParameters{MarkupPct: 20, DiscountPct: 5, OriginPort: "valencia", DestinationPort: "valparaiso"}
	if q.Parameters != wantParams {
		t.Fatalf("parameters = %+v", q.Parameters)
	}
}

func TestBuildQuotation_NoOptionalsKeepsEmptyList(t *testing.T) {
	e := newTestEngine()
	main, _ := chipper()

	q, err := e.BuildQuotation(QuoteInput{MainProduct: main, MarkupPct: 20, DiscountPct: 5, ExchangeRate: 950})
	if err != nil {
		t.Fatalf("build quotation: %v", err)
	}
	if q.Optionals == nil || len(q.Optionals) != 0 {
		t.Fatalf("expected empty, non-nil optionals, got %#v", q.Optionals)
	}
	if q.Shipping.BaseCost != 3000 {
		t.Fatalf("expected default route for empty ports, got %v", q.Shipping.BaseCost)
	}
}

func TestBuildQuotation_IdentifiersDifferForIdenticalInputs(t *testing.T) {
	e := newTestEngine()
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	e.now = func() time.Time { return fixed }
	main, optionals := chipper()
	in := QuoteInput{MainProduct: main, Optionals: optionals, MarkupPct: 18.5, DiscountPct: 3, ExchangeRate: 950, OriginPort: "valencia", DestinationPort: "valparaiso"}

	a, err := e.BuildQuotation(in)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := e.BuildQuotation(in)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if a.ID == b.ID {
		t.Fatalf("identifiers should differ, both %q", a.ID)
	}
	a.ID, b.ID = "", ""
	if a.Totals != b.Totals || a.Shipping != b.Shipping || a.GrandTotalLocal != b.GrandTotalLocal {
		t.Fatal("non-identifier fields should match for identical inputs")
	}
}

func TestBuildQuotation_NonFiniteParameters(t *testing.T) {
	e := newTestEngine()
	main, _ := chipper()

	_, err := e.BuildQuotation(QuoteInput{MainProduct: main, MarkupPct: math.NaN(), ExchangeRate: 950})
	if !errors.Is(err, ErrNonFiniteInput) {
		t.Fatalf("expected ErrNonFiniteInput, got %v", err)
	}
}

func TestBuildQuotation_OverflowIsReported(t *testing.T) {
	e := newTestEngine()
	main := models.LineItem{Code: "BIG", PriceEUR: models.Num(math.MaxFloat64)}

	_, err := e.BuildQuotation(QuoteInput{MainProduct: main, MarkupPct: 20, ExchangeRate: 950})
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

type quotationList []models.Quotation

func (l quotationList) LoadQuotations(context.Context) ([]models.Quotation, error) {
	return l, nil
}

func TestBuildQuotation_StampsConfiguredZone(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	e := NewEngine(config.DefaultPricing().Tariff, nil, WithLocation(santiago))
	// 22:00 in Santiago on the 14th is already the 15th in UTC.
	e.now = func() time.Time { return time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC) }

	main, optionals := chipper()
	q, err := e.BuildQuotation(QuoteInput{MainProduct: main, Optionals: optionals, MarkupPct: 20, DiscountPct: 5, ExchangeRate: 950})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if q.Date != "2025-03-14 22:00:00" || !strings.HasPrefix(q.ID, "COT-20250314220000-") {
		t.Fatalf("quotation stamped outside the configured zone: fecha=%s id=%s", q.Date, q.ID)
	}

	summary, err := reporting.NewService(quotationList{q}, nil, nil).
		Summarize(context.Background(), time.Date(2025, 3, 14, 23, 55, 0, 0, santiago))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Count != 1 {
		t.Fatalf("late-evening quotation missing from its day's summary: %+v", summary)
	}
}
