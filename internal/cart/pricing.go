package cart

import "github.com/shopspring/decimal"

// Breakdown is the priced summary of a cart. Discount is the amount the
// customer was granted, which may exceed what was actually deducted when
// the total clamps at zero.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(c Cart) decimal.Decimal {
	basis := c.PriceBasis()
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Amount(basis))
	}
	return sum
}

// Tax returns subtotal times TaxRate rounded to cents, or zero when disabled.
func Tax(subtotal decimal.Decimal, enabled bool) decimal.Decimal {
	if !enabled {
		return decimal.Zero
	}
	return subtotal.Mul(TaxRate).Round(2)
}

// Total is subtotal + tax - discount, floored at zero.
func Total(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(tax).Sub(discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

// Price computes a breakdown from raw figures.
func Price(subtotal decimal.Decimal, taxEnabled bool, discount decimal.Decimal) Breakdown {
	tax := Tax(subtotal, taxEnabled)
	return Breakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    Total(subtotal, tax, discount),
	}
}

// Summarize prices the cart.
func Summarize(c Cart) Breakdown {
	return Price(Subtotal(c), c.TaxEnabled, c.Discount)
}
