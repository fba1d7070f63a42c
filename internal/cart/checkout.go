package cart

import "github.com/shopspring/decimal"

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	Cash         PaymentMethod = "cash"
	Card         PaymentMethod = "card"
	MobileMoney  PaymentMethod = "mobile_money"
	BankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethods lists the accepted methods.
var PaymentMethods = []string{string(Cash), string(Card), string(MobileMoney), string(BankTransfer)}

// Valid reports whether m is accepted.
func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, Card, MobileMoney, BankTransfer:
		return true
	}
	return false
}

// Payment is what the cashier entered at checkout. A zero AmountPaid means
// the exact total was tendered.
type Payment struct {
	Method     PaymentMethod   `json:"payment_method"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// OrderLine is a priced line as sent to the order service.
type OrderLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Basis     PriceBasis      `json:"basis"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderRequest is the single checkout payload used by every flow.
type OrderRequest struct {
	Lines         []OrderLine     `json:"lines"`
	Basis         PriceBasis      `json:"basis"`
	TaxEnabled    bool            `json:"tax_enabled"`
	Breakdown     Breakdown       `json:"breakdown"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Change        decimal.Decimal `json:"change"`
}

// NewOrderRequest prices c and attaches the payment.
func NewOrderRequest(c Cart, p Payment) (OrderRequest, error) {
	if c.Empty() {
		return OrderRequest{}, ErrEmptyCart
	}
	if p.Method == "" {
		p.Method = Cash
	}
	if !p.Method.Valid() {
		return OrderRequest{}, ErrUnknownPayment
	}
	if c.Discount.IsNegative() {
		return OrderRequest{}, ErrNegativeDiscount
	}

	basis := c.PriceBasis()
	b := Summarize(c)
	paid := p.AmountPaid
	if paid.IsZero() {
		paid = b.Total
	}
	if paid.LessThan(b.Total) {
		return OrderRequest{}, ErrInsufficientPayment
	}

	lines := make([]OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, OrderLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			SKU:       l.Product.SKU,
			Quantity:  l.Quantity,
			Basis:     l.basis(basis),
			UnitPrice: l.UnitPrice(basis),
			Amount:    l.Amount(basis),
		})
	}
	return OrderRequest{
		Lines:         lines,
		Basis:         basis,
		TaxEnabled:    c.TaxEnabled,
		Breakdown:     b,
		PaymentMethod: p.Method,
		AmountPaid:    paid,
		Change:        paid.Sub(b.Total),
	}, nil
}
