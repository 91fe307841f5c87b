package sheets

import (
	"context"
	"errors"

	"github.com/ecoalliance/cotizador/internal/domain/models"
)

// LedgerRange receives one row per quotation.
const LedgerRange = "Cotizaciones!A:H"

// Ledger records quotations as spreadsheet rows so sales can follow them
// without opening the JSON archive.
type Ledger struct {
	repo Repository
}

// NewLedger wraps a sheet repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// SaveQuotation appends id, date, main product, optional count, goods total,
// shipping total and both grand totals.
func (l *Ledger) SaveQuotation(ctx context.Context, envelope models.QuotationEnvelope) error {
	q := envelope.Quotation
	if q == nil {
		return errors.New("envelope carries no quotation")
	}
	return l.repo.WriteRow(ctx, LedgerRange, LedgerRow(*q))
}

// LedgerRow is the row written for a quotation.
func LedgerRow(q models.Quotation) []interface{} {
	return []interface{}{
		q.ID,
		q.Date,
		q.MainProduct.Code,
		len(q.Optionals),
		q.Totals.FinalEUR,
		q.Shipping.Total,
		q.GrandTotalEUR,
		q.GrandTotalLocal,
	}
}
