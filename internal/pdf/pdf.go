// Package pdf renders invoices, quotes and sale receipts with gofpdf.
package pdf

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/models"
)

// Line is one printed item row.
type Line struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// Field is a label/value pair printed in the header or under the totals.
type Field struct {
	Label string
	Value string
}

// Document is everything a printed page needs, independent of its source.
type Document struct {
	Title      string
	Number     string
	Company    models.Company
	PartyLabel string
	Party      []string
	Meta       []Field
	Lines      []Line
	Breakdown  cart.Breakdown
	Extra      []Field
	Notes      string
}

const (
	dateLayout = "2006-01-02"
	colDesc    = 95.0
	colQty     = 20.0
	colPrice   = 35.0
	colAmount  = 40.0
	rowH       = 7.0
)

// Render writes doc as an A4 PDF.
func Render(w io.Writer, doc Document) error {
	p := gofpdf.New("P", "mm", "A4", "")
	tr := p.UnicodeTranslatorFromDescriptor("")
	cur := doc.Company.Currency
	p.SetTitle(doc.Title+" "+doc.Number, true)
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont("Arial", "I", 8)
		p.CellFormat(0, 10, tr(doc.Company.Footer), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	// seller
	p.SetFont("Arial", "B", 14)
	p.Cell(0, 8, tr(doc.Company.Name))
	p.Ln(8)
	p.SetFont("Arial", "", 9)
	for _, l := range doc.Company.AddressLines() {
		p.Cell(0, 5, tr(l))
		p.Ln(5)
	}
	if doc.Company.TaxNumber != "" {
		p.Cell(0, 5, tr("Tax no: "+doc.Company.TaxNumber))
		p.Ln(5)
	}
	p.Ln(4)

	// title + meta
	p.SetFont("Arial", "B", 18)
	p.Cell(0, 10, tr(doc.Title+" "+doc.Number))
	p.Ln(12)
	p.SetFont("Arial", "", 10)
	for _, f := range doc.Meta {
		p.CellFormat(40, 6, tr(f.Label), "", 0, "L", false, 0, "")
		p.CellFormat(0, 6, tr(f.Value), "", 1, "L", false, 0, "")
	}
	if len(doc.Party) > 0 {
		p.Ln(3)
		p.SetFont("Arial", "B", 10)
		p.Cell(0, 6, tr(doc.PartyLabel))
		p.Ln(6)
		p.SetFont("Arial", "", 10)
		for _, l := range doc.Party {
			p.Cell(0, 5, tr(l))
			p.Ln(5)
		}
	}
	p.Ln(6)

	// items
	p.SetFont("Arial", "B", 10)
	p.SetFillColor(230, 230, 230)
	p.CellFormat(colDesc, rowH, "Description", "1", 0, "L", true, 0, "")
	p.CellFormat(colQty, rowH, "Qty", "1", 0, "R", true, 0, "")
	p.CellFormat(colPrice, rowH, "Unit price", "1", 0, "R", true, 0, "")
	p.CellFormat(colAmount, rowH, "Amount", "1", 1, "R", true, 0, "")
	p.SetFont("Arial", "", 10)
	for _, l := range doc.Lines {
		p.CellFormat(colDesc, rowH, tr(l.Description), "1", 0, "L", false, 0, "")
		p.CellFormat(colQty, rowH, strconv.Itoa(l.Quantity), "1", 0, "R", false, 0, "")
		p.CellFormat(colPrice, rowH, Money(l.UnitPrice, cur), "1", 0, "R", false, 0, "")
		p.CellFormat(colAmount, rowH, Money(l.Amount, cur), "1", 1, "R", false, 0, "")
	}
	p.Ln(3)

	// totals
	totals := []Field{
		{"Subtotal", Money(doc.Breakdown.Subtotal, cur)},
		{"Tax", Money(doc.Breakdown.Tax, cur)},
		{"Discount", "-" + Money(doc.Breakdown.Discount, cur)},
	}
	for _, f := range totals {
		totalRow(p, f, false)
	}
	totalRow(p, Field{"Total", Money(doc.Breakdown.Total, cur)}, true)
	for _, f := range doc.Extra {
		totalRow(p, Field{tr(f.Label), tr(f.Value)}, false)
	}

	if doc.Notes != "" {
		p.Ln(8)
		p.SetFont("Arial", "I", 9)
		p.MultiCell(0, 5, tr(doc.Notes), "", "L", false)
	}

	if err := p.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return p.Output(w)
}

func totalRow(p *gofpdf.Fpdf, f Field, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	p.SetFont("Arial", style, 10)
	p.CellFormat(colDesc+colQty, rowH, "", "", 0, "L", false, 0, "")
	p.CellFormat(colPrice, rowH, f.Label, "", 0, "R", false, 0, "")
	p.CellFormat(colAmount, rowH, f.Value, "", 1, "R", false, 0, "")
}

// Money formats an amount with two decimals and the currency code.
func Money(d decimal.Decimal, currency string) string {
	s := d.StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
