package pdf

import (
	"strings"

	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/models"
)

func clientParty(c *models.Client) []string {
	if c == nil {
		return nil
	}
	lines := []string{c.Name}
	if addr := c.FullAddress(); addr != "" {
		lines = append(lines, strings.Split(addr, "\n")...)
	}
	if c.TaxNumber != "" {
		lines = append(lines, "Tax no: "+c.TaxNumber)
	}
	return lines
}

// Invoice builds the printable form of inv. inv.Client and inv.Items must
// be loaded.
func Invoice(inv *models.Invoice, company models.Company) Document {
	doc := Document{
		Title:      "Invoice",
		Number:     inv.Number,
		Company:    company,
		PartyLabel: "Bill to",
		Party:      clientParty(inv.Client),
		Meta: []Field{
			{"Issue date", date(inv.IssueDate)},
			{"Due date", date(inv.DueDate)},
			{"Status", string(inv.Status)},
		},
		Breakdown: cart.Breakdown{Subtotal: inv.Subtotal, Tax: inv.Tax, Discount: inv.Discount, Total: inv.Total},
		Notes:     inv.Notes,
	}
	for _, it := range inv.Items {
		doc.Lines = append(doc.Lines, Line{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Amount: it.LineTotal()})
	}
	if inv.PaidAt != nil {
		doc.Extra = append(doc.Extra, Field{"Paid on", date(*inv.PaidAt)})
	}
	return doc
}

// Quote builds the printable form of q.
func Quote(q *models.Quote, company models.Company) Document {
	doc := Document{
		Title:      "Quote",
		Number:     q.Number,
		Company:    company,
		PartyLabel: "Prepared for",
		Party:      clientParty(q.Client),
		Meta: []Field{
			{"Date", date(q.IssueDate)},
			{"Valid until", date(q.ValidUntil)},
			{"Pricing", q.Basis},
		},
		Breakdown: cart.Breakdown{Subtotal: q.Subtotal, Tax: q.Tax, Discount: q.Discount, Total: q.Total},
		Notes:     q.Notes,
	}
	for _, it := range q.Items {
		doc.Lines = append(doc.Lines, Line{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Amount: it.LineTotal()})
	}
	return doc
}

// Receipt builds the printable form of a point-of-sale order.
func Receipt(o *models.Order, company models.Company) Document {
	doc := Document{
		Title:   "Receipt",
		Number:  o.Number,
		Company: company,
		Meta: []Field{
			{"Date", o.CreatedAt.Format("2006-01-02 15:04")},
			{"Payment", o.PaymentMethod},
		},
		Party:      clientParty(o.Client),
		PartyLabel: "Customer",
		Breakdown:  cart.Breakdown{Subtotal: o.Subtotal, Tax: o.Tax, Discount: o.Discount, Total: o.Total},
		Extra: []Field{
			{"Paid", Money(o.AmountPaid, company.Currency)},
			{"Change", Money(o.ChangeDue, company.Currency)},
		},
	}
	if o.Status == models.OrderVoided {
		doc.Title = "Receipt (voided)"
	}
	for _, it := range o.Items {
		doc.Lines = append(doc.Lines, Line{Description: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Amount: it.LineTotal})
	}
	return doc
}
