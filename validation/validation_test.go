package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Email("email", "nope", v)
	PositiveInt("quantity", 0, v)
	NonNegativeInt("stock", -1, v)
	PositiveDecimal("price", decimal.Zero, v)
	NonNegativeDecimal("discount", decimal.NewFromInt(-5), v)
	RangeDecimal("markup", decimal.NewFromInt(1001), decimal.Zero, decimal.NewFromInt(1000), v)
	OneOf("method", "barter", []string{"cash", "card"}, v)
	MaxLen("sku", "ABCDEFGHIJK", 10, v)

	assert.Equal(t, Violations{
		"name":     "required",
		"email":    "invalid_email",
		"quantity": "must_be_positive",
		"stock":    "must_not_be_negative",
		"price":    "must_be_positive",
		"discount": "must_not_be_negative",
		"markup":   "out_of_range",
		"method":   "invalid_choice",
		"sku":      "too_long",
	}, v)
}

func TestValidatorsAcceptGoodInput(t *testing.T) {
	v := Violations{}
	Required("name", "Widget", v)
	Email("email", "a@b.co", v)
	Email("optional", "", v)
	PositiveDecimal("price", decimal.RequireFromString("0.01"), v)
	OneOf("method", "cash", []string{"cash", "card"}, v)
	assert.True(t, v.Empty())
}
