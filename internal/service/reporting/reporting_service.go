package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/domain/models"
	repo "github.com/ecoalliance/cotizador/internal/repository/sheets"
)

const (
	dateLayout   = "2006-01-02"
	summaryRange = "Resumen!A:E"
)

// QuotationSource lists stored quotations.
type QuotationSource interface {
	LoadQuotations(ctx context.Context) ([]models.Quotation, error)
}

// DailySummary aggregates the quotations issued on one calendar day.
type DailySummary struct {
	Day           time.Time
	Count         int
	GoodsEUR      float64
	ShippingEUR   float64
	GrandTotalEUR float64
}

// Service builds quotation activity summaries.
type Service struct {
	source QuotationSource
	sheet  repo.Repository
	logger *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil, in
// which case summaries are only returned.
func NewService(source QuotationSource, sheet repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, sheet: sheet, logger: logger}
}

// Summarize totals the quotations dated on day.
func (s *Service) Summarize(ctx context.Context, day time.Time) (DailySummary, error) {
	quotations, err := s.source.LoadQuotations(ctx)
	if err != nil {
		return DailySummary{}, fmt.Errorf("load quotations: %w", err)
	}

	target := day.Format(dateLayout)
	goods, shipping, grand := decimal.Zero, decimal.Zero, decimal.Zero
	summary := DailySummary{Day: day}

	for _, q := range quotations {
		issued, err := parseDate(q.Date)
		if err != nil {
			s.logger.Debug("skip quotation with invalid date", zap.String("id", q.ID), zap.String("fecha", q.Date), zap.Error(err))
			continue
		}
		if issued.Format(dateLayout) != target {
			continue
		}

		summary.Count++
		goods = goods.Add(decimal.NewFromFloat(q.Totals.FinalEUR))
		shipping = shipping.Add(decimal.NewFromFloat(q.Shipping.Total))
		grand = grand.Add(decimal.NewFromFloat(q.GrandTotalEUR))
	}

	summary.GoodsEUR = goods.Round(2).InexactFloat64()
	summary.ShippingEUR = shipping.Round(2).InexactFloat64()
	summary.GrandTotalEUR = grand.Round(2).InexactFloat64()
	return summary, nil
}

// PublishDailySummary summarizes day, appends the summary to the report
// sheet when one is configured and returns a one-line description.
func (s *Service) PublishDailySummary(ctx context.Context, day time.Time) (string, error) {
	summary, err := s.Summarize(ctx, day)
	if err != nil {
		return "", err
	}

	if s.sheet != nil {
		row := []interface{}{
			summary.Day.Format(dateLayout),
			summary.Count,
			summary.GoodsEUR,
			summary.ShippingEUR,
			summary.GrandTotalEUR,
		}
		if err := s.sheet.WriteRow(ctx, summaryRange, row); err != nil {
			return "", fmt.Errorf("publish summary: %w", err)
		}
	}

	return Describe(summary), nil
}

// Describe renders a summary as a single line.
func Describe(summary DailySummary) string {
	day := summary.Day.Format(dateLayout)
	if summary.Count == 0 {
		return fmt.Sprintf("Quotations (%s): none issued.", day)
	}
	return fmt.Sprintf("Quotations (%s): %d issued, goods %.2f EUR, shipping %.2f EUR, grand total %.2f EUR.",
		day, summary.Count, summary.GoodsEUR, summary.ShippingEUR, summary.GrandTotalEUR)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	return time.Parse(dateLayout, value)
}
