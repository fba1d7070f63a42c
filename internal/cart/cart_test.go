package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(d(want)), "want %s got %s", want, got)
}

func widget() Product {
	return Product{ID: 1, Name: "Widget", SKU: "W-1", RetailPrice: d("1000"), WholesalePrice: d("800"), Stock: 10}
}

func gadget() Product {
	return Product{ID: 2, Name: "Gadget", SKU: "G-1", RetailPrice: d("19.99"), WholesalePrice: d("15.50"), Stock: 3}
}

func TestSubtotalIsExactSum(t *testing.T) {
	c := New()
	c = AddLine(c, widget(), 3, "")
	c = AddLine(c, gadget(), 7, "")
	c = AddLine(c, Product{ID: 3, RetailPrice: d("0.1")}, 3, "")
	// 3000 + 139.93 + 0.3
	assertMoney(t, "3140.23", Subtotal(c))
}

func TestTotalNeverNegative(t *testing.T) {
	for _, disc := range []string{"0", "1", "2359.99", "2360", "2360.01", "1000000"} {
		got := Total(d("2000"), d("360"), d(disc))
		assert.False(t, got.IsNegative(), "discount %s", disc)
	}
}

func TestTaxToggleOff(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	c, err := WithDiscount(c, d("150"))
	require.NoError(t, err)

	c = WithTax(c, true)
	assertMoney(t, "360", Summarize(c).Tax)

	c = WithTax(c, false)
	b := Summarize(c)
	assertMoney(t, "0", b.Tax)
	assertMoney(t, "1850", b.Total)
}

func TestAddOrIncrementMergesByProduct(t *testing.T) {
	c := AddOrIncrement(New(), widget())
	c = AddOrIncrement(c, widget())
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestScenarioWithoutTax(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	b := Summarize(c)
	assertMoney(t, "2000", b.Subtotal)
	assertMoney(t, "0", b.Tax)
	assertMoney(t, "2000", b.Total)

	req, err := NewOrderRequest(c, Payment{Method: Cash})
	require.NoError(t, err)
	assertMoney(t, "2000", req.Breakdown.Subtotal)
	assertMoney(t, "0", req.Breakdown.Discount)
	assertMoney(t, "2000", req.Breakdown.Total)
}

func TestScenarioWithTax(t *testing.T) {
	c := WithTax(AddLine(New(), widget(), 2, ""), true)
	b := Summarize(c)
	assertMoney(t, "360", b.Tax)
	assertMoney(t, "2360", b.Total)
}

func TestScenarioDiscountClampsTotal(t *testing.T) {
	c, err := WithDiscount(AddLine(New(), widget(), 2, ""), d("3000"))
	require.NoError(t, err)
	b := Summarize(c)
	assertMoney(t, "0", b.Total)
	assertMoney(t, "3000", b.Discount)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	got := Remove(c, 99)
	assert.Equal(t, c, got)
}

func TestUpdateQuantityClampsAtOne(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	c = UpdateQuantity(c, 1, -1)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	c = UpdateQuantity(c, 1, -5)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	c = UpdateQuantity(c, 1, 4)
	assert.Equal(t, 5, c.Lines[0].Quantity)

	same := UpdateQuantity(c, 42, 3)
	assert.Equal(t, c, same)

	c = SetQuantity(c, 1, 0)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	c = SetQuantity(c, 1, 9)
	assert.Equal(t, 9, c.Lines[0].Quantity)
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	orig := AddLine(AddLine(New(), widget(), 2, ""), gadget(), 1, "")
	_ = UpdateQuantity(orig, 1, 5)
	_ = Remove(orig, 1)
	_ = AddOrIncrement(orig, gadget())
	assert.Equal(t, 2, orig.Lines[0].Quantity)
	assert.Equal(t, 1, orig.Lines[1].Quantity)
	assert.Len(t, orig.Lines, 2)
}

func TestClearKeepsAdjustments(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	c, _ = WithDiscount(c, d("10"))
	c = WithTax(c, true)
	c, _ = WithBasis(c, Wholesale)

	c = Clear(c)
	assert.True(t, c.Empty())
	assertMoney(t, "10", c.Discount)
	assert.True(t, c.TaxEnabled)
	assert.Equal(t, Wholesale, c.Basis)
	assertMoney(t, "0", Summarize(c).Total)
}

func TestBasisSelection(t *testing.T) {
	c := AddLine(New(), widget(), 2, "")
	c = AddLine(c, gadget(), 2, Retail)
	c, err := WithBasis(c, Wholesale)
	require.NoError(t, err)
	// widget wholesale 800*2, gadget keeps its retail override 19.99*2
	assertMoney(t, "1639.98", Subtotal(c))

	_, err = WithBasis(c, "vip")
	assert.ErrorIs(t, err, ErrUnknownPriceBasis)

	var zero Cart
	zero = AddOrIncrement(zero, widget())
	assert.Equal(t, Retail, zero.PriceBasis())
	assertMoney(t, "1000", Subtotal(zero))
}

func TestTaxRoundsToCents(t *testing.T) {
	assertMoney(t, "3.60", Tax(d("19.99"), true))
	assertMoney(t, "0", Tax(d("19.99"), false))
}

func TestWithDiscountRejectsNegative(t *testing.T) {
	c := New()
	_, err := WithDiscount(c, d("-1"))
	assert.ErrorIs(t, err, ErrNegativeDiscount)
}

func TestNewOrderRequest(t *testing.T) {
	_, err := NewOrderRequest(New(), Payment{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	c := WithTax(AddLine(New(), widget(), 2, ""), true)

	_, err = NewOrderRequest(c, Payment{Method: Cash, AmountPaid: d("2000")})
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	_, err = NewOrderRequest(c, Payment{Method: "cheque"})
	assert.ErrorIs(t, err, ErrUnknownPayment)

	req, err := NewOrderRequest(c, Payment{Method: Cash, AmountPaid: d("2500")})
	require.NoError(t, err)
	assertMoney(t, "140", req.Change)
	assertMoney(t, "2360", req.Breakdown.Total)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, uint(1), req.Lines[0].ProductID)
	assert.Equal(t, Retail, req.Lines[0].Basis)
	assertMoney(t, "2000", req.Lines[0].Amount)

	exact, err := NewOrderRequest(c, Payment{Method: Card})
	require.NoError(t, err)
	assertMoney(t, "2360", exact.AmountPaid)
	assertMoney(t, "0", exact.Change)
}
