package cart

import "github.com/shopspring/decimal"

// AddOrIncrement adds one unit of p. A product already in the cart has its
// quantity incremented and its snapshot refreshed; lines stay unique by id.
func AddOrIncrement(c Cart, p Product) Cart {
	return AddLine(c, p, 1, "")
}

// AddLine adds qty units of p, optionally with a per-line basis override.
// qty below 1 is treated as 1.
func AddLine(c Cart, p Product, qty int, basis PriceBasis) Cart {
	if qty < 1 {
		qty = 1
	}
	out := c.clone()
	if i := out.index(p.ID); i >= 0 {
		out.Lines[i].Product = p
		out.Lines[i].Quantity += qty
		if basis.Valid() {
			out.Lines[i].Basis = basis
		}
		return out
	}
	if !basis.Valid() {
		basis = ""
	}
	out.Lines = append(out.Lines, Line{Product: p, Quantity: qty, Basis: basis})
	return out
}

// UpdateQuantity adds delta to the line's quantity, never going below 1.
// Removing a line is always explicit. Unknown products are a no-op.
func UpdateQuantity(c Cart, productID uint, delta int) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	out := c.clone()
	out.Lines[i].Quantity = max(out.Lines[i].Quantity+delta, 1)
	return out
}

// SetQuantity sets the line's quantity, clamped at 1.
func SetQuantity(c Cart, productID uint, qty int) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	return UpdateQuantity(c, productID, qty-c.Lines[i].Quantity)
}

// Remove deletes the line for productID. Absent products are a no-op.
func Remove(c Cart, productID uint) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	out := c.clone()
	out.Lines = append(out.Lines[:i], out.Lines[i+1:]...)
	return out
}

// Clear empties the lines. Discount, tax toggle and basis are kept.
func Clear(c Cart) Cart {
	out := c
	out.Lines = []Line{}
	return out
}

// WithDiscount sets the absolute discount amount.
func WithDiscount(c Cart, d decimal.Decimal) (Cart, error) {
	if d.IsNegative() {
		return c, ErrNegativeDiscount
	}
	out := c
	out.Discount = d
	return out, nil
}

// WithTax toggles tax.
func WithTax(c Cart, enabled bool) Cart {
	out := c
	out.TaxEnabled = enabled
	return out
}

// WithBasis switches the cart-level price basis.
func WithBasis(c Cart, b PriceBasis) (Cart, error) {
	if !b.Valid() {
		return c, ErrUnknownPriceBasis
	}
	out := c
	out.Basis = b
	return out, nil
}
