// Package cart is the point-of-sale pricing engine.
//
// Every operation is a pure function over a Cart value: the input is never
// mutated and a new Cart is returned. Money is fixed-point decimal; tax is
// rounded to cents when it is computed, subtotals and totals are exact.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to the subtotal when tax is enabled.
var TaxRate = decimal.RequireFromString("0.18")

// PriceBasis selects which catalog price a line is charged at.
type PriceBasis string

const (
	Retail    PriceBasis = "retail"
	Wholesale PriceBasis = "wholesale"
)

// Valid reports whether b is a known basis.
func (b PriceBasis) Valid() bool { return b == Retail || b == Wholesale }

var (
	ErrEmptyCart           = errors.New("empty_cart")
	ErrNegativeDiscount    = errors.New("negative_discount")
	ErrUnknownPriceBasis   = errors.New("unknown_price_basis")
	ErrInsufficientPayment = errors.New("insufficient_payment")
	ErrUnknownPayment      = errors.New("unknown_payment_method")
)

// Product is the catalog snapshot a line carries.
type Product struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	RetailPrice    decimal.Decimal `json:"retail_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Stock          int             `json:"stock"`
}

// UnitPrice returns the price for basis; anything but wholesale is retail.
func (p Product) UnitPrice(b PriceBasis) decimal.Decimal {
	if b == Wholesale {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// Line is one product in the cart. Basis, when set, overrides the cart
// basis for this line only.
type Line struct {
	Product  Product    `json:"product"`
	Quantity int        `json:"quantity"`
	Basis    PriceBasis `json:"basis,omitempty"`
}

func (l Line) basis(cartBasis PriceBasis) PriceBasis {
	if l.Basis.Valid() {
		return l.Basis
	}
	return cartBasis
}

// UnitPrice is the price charged per unit under cartBasis.
func (l Line) UnitPrice(cartBasis PriceBasis) decimal.Decimal {
	return l.Product.UnitPrice(l.basis(cartBasis))
}

// Amount is unit price times quantity.
func (l Line) Amount(cartBasis PriceBasis) decimal.Decimal {
	return l.UnitPrice(cartBasis).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the full pricing state. The zero value is an empty retail cart.
type Cart struct {
	Lines      []Line          `json:"lines"`
	Discount   decimal.Decimal `json:"discount"`
	TaxEnabled bool            `json:"tax_enabled"`
	Basis      PriceBasis      `json:"basis"`
}

// New returns an empty retail cart.
func New() Cart {
	return Cart{Lines: []Line{}, Basis: Retail}
}

// PriceBasis returns the effective cart basis.
func (c Cart) PriceBasis() PriceBasis {
	if c.Basis.Valid() {
		return c.Basis
	}
	return Retail
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Lines) == 0 }

// Line returns the line for productID.
func (c Cart) Line(productID uint) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Units is the total number of units across lines.
func (c Cart) Units() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) index(productID uint) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := c
	out.Lines = make([]Line, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}
