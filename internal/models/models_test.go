package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProduct_CartProduct(t *testing.T) {
	p := Product{ID: 3, SKU: "S-3", Name: "Soap", RetailPrice: decimal.NewFromInt(5), WholesalePrice: decimal.NewFromInt(4), Stock: 9}
	cp := p.CartProduct()
	if cp.ID != 3 || cp.SKU != "S-3" || cp.Stock != 9 || !cp.WholesalePrice.Equal(decimal.NewFromInt(4)) {
		t.Errorf("CartProduct() = %+v", cp)
	}
}

func TestProduct_LowStock(t *testing.T) {
	tests := []struct {
		stock, reorder int
		want           bool
	}{
		{0, 0, true},
		{5, 5, true},
		{6, 5, false},
	}
	for _, tt := range tests {
		if got := (Product{Stock: tt.stock, ReorderLevel: tt.reorder}).LowStock(); got != tt.want {
			t.Errorf("LowStock(stock=%d, reorder=%d) = %v, want %v", tt.stock, tt.reorder, got, tt.want)
		}
	}
}

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{"full address", Client{Address: "12 Market St", PostalCode: "00100", City: "Nairobi", Country: "Kenya"}, "12 Market St\n00100 Nairobi\nKenya"},
		{"only city", Client{City: "Kampala"}, "Kampala"},
		{"empty", Client{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullAddress(); got != tt.want {
				t.Errorf("FullAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineTotals(t *testing.T) {
	it := InvoiceItem{Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")}
	if got := it.LineTotal(); !got.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("InvoiceItem.LineTotal() = %s", got)
	}
	qi := QuoteItem{Quantity: 2, UnitPrice: decimal.NewFromInt(10)}
	if got := qi.LineTotal(); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("QuoteItem.LineTotal() = %s", got)
	}
}

func TestProfile_Codes(t *testing.T) {
	p := Profile{Permissions: []Permission{{ResourceType: "pos", Action: "*"}, {ResourceType: "order", Action: "view"}}}
	got := p.Codes()
	if len(got) != 2 || got[0] != "pos:*" || got[1] != "order:view" {
		t.Errorf("Codes() = %v", got)
	}
}

func TestOwnable(t *testing.T) {
	var _ Ownable = &Order{UserID: 1}
	var _ Ownable = &Invoice{}
	var _ Ownable = &Quote{}
	var _ Ownable = &Expense{}
	if (&Order{UserID: 7}).GetUserID() != 7 {
		t.Error("Order.GetUserID")
	}
}
