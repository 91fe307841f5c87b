package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ecoalliance/cotizador/internal/domain/models"
)

// Generator renders a quotation as a printable document.
type Generator interface {
	Generate(q models.Quotation) ([]byte, error)
}

// QuotationPDF renders quotations on a single A4 page using the core
// Helvetica font with a cp1252 translator for Spanish text.
type QuotationPDF struct {
	Company string
}

// New returns a generator that prints company in the page header.
func New(company string) *QuotationPDF {
	return &QuotationPDF{Company: company}
}

// Generate renders q as a single A4 page: header, item table, totals and
// shipping breakdown.
func (g *QuotationPDF) Generate(q models.Quotation) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(tr("Cotización "+q.ID), false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, tr("Cotización"))
	doc.Ln(9)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, tr(fmt.Sprintf("N° %s   Fecha: %s", q.ID, q.Date)))
	doc.Ln(6)
	doc.Cell(0, 6, tr(fmt.Sprintf("Ruta: %s - %s   Markup: %s%%   Descuento: %s%%",
		q.Parameters.OriginPort, q.Parameters.DestinationPort,
		percent(q.Parameters.MarkupPct), percent(q.Parameters.DiscountPct))))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(25, 7, tr("Código"), "B", 0, "L", false, 0, "")
	doc.CellFormat(85, 7, tr("Producto"), "B", 0, "L", false, 0, "")
	doc.CellFormat(25, 7, "Base EUR", "B", 0, "R", false, 0, "")
	doc.CellFormat(25, 7, "Final EUR", "B", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Final local", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, it := range append([]models.PricedItem{q.MainProduct}, q.Optionals...) {
		doc.CellFormat(25, 6, tr(it.Code), "", 0, "L", false, 0, "")
		doc.CellFormat(85, 6, tr(trim(it.Name, 48)), "", 0, "L", false, 0, "")
		doc.CellFormat(25, 6, money(it.BasePriceEUR), "", 0, "R", false, 0, "")
		doc.CellFormat(25, 6, money(it.FinalPriceEUR), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, money(it.FinalPriceLocal), "", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	rows := []struct {
		label string
		value float64
	}{
		{"Subtotal EUR", q.Totals.SubtotalEUR},
		{"Total con markup EUR", q.Totals.WithMarkupEUR},
		{"Descuento aplicado EUR", q.Totals.DiscountEUR},
		{"Total productos EUR", q.Totals.FinalEUR},
		{"Total productos local", q.Totals.FinalLocal},
		{"Tasa de cambio", q.Totals.ExchangeRateUsed},
		{"Envío: costo base", q.Shipping.BaseCost},
		{"Envío: costo variable", q.Shipping.VariableCost},
		{"Envío: seguro", q.Shipping.Insurance},
		{"Envío: impuestos", q.Shipping.Taxes},
		{"Envío: total", q.Shipping.Total},
	}
	for _, r := range rows {
		doc.CellFormat(160, 6, tr(r.label), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, money(r.value), "", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(160, 8, "Gran total EUR", "T", 0, "R", false, 0, "")
	doc.CellFormat(30, 8, money(q.GrandTotalEUR), "T", 1, "R", false, 0, "")
	doc.CellFormat(160, 8, "Gran total local", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 8, money(q.GrandTotalLocal), "", 1, "R", false, 0, "")

	if g.Company != "" {
		doc.Ln(6)
		doc.SetFont("Helvetica", "", 8)
		doc.Cell(0, 5, tr(g.Company))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quotation %s: %w", q.ID, err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
