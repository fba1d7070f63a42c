package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-stockpos/internal/models"
)

func TestMarginHelpers(t *testing.T) {
	if got := ApplyMargin(dec("100"), dec("25")); !got.Equal(dec("125")) {
		t.Fatalf("ApplyMargin = %s, want 125", got)
	}
	if got := MarginPercent(dec("80"), dec("100")); !got.Equal(dec("25")) {
		t.Fatalf("MarginPercent = %s, want 25", got)
	}
	if got := MarginPercent(dec("0"), dec("10")); !got.IsZero() {
		t.Fatalf("MarginPercent with zero cost = %s, want 0", got)
	}
	if got := ApplyMargin(dec("9.99"), dec("33.3")); !got.Equal(dec("13.32")) {
		t.Fatalf("ApplyMargin rounding = %s, want 13.32", got)
	}
}

func TestCreateProductFromMargin(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewCatalogService(gdb)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, 1, ProductInput{
		SKU:                    " ab-1 ",
		Name:                   "Widget",
		CostPrice:              dec("40"),
		RetailMarginPercent:    decPtr("50"),
		WholesaleMarginPercent: decPtr("20"),
		Stock:                  5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.SKU != "AB-1" || !p.Active || p.Unit != "pcs" {
		t.Fatalf("unexpected product %+v", p)
	}
	if !p.RetailPrice.Equal(dec("60")) || !p.WholesalePrice.Equal(dec("48")) {
		t.Fatalf("prices = %s / %s", p.RetailPrice, p.WholesalePrice)
	}
	moves, err := svc.StockMovements(ctx, p.ID, 10)
	if err != nil || len(moves) != 1 || moves[0].Delta != 5 || moves[0].Reason != models.StockRestock {
		t.Fatalf("opening movement = %+v, %v", moves, err)
	}

	_, err = svc.CreateProduct(ctx, 1, ProductInput{SKU: "ab-1", Name: "Dup", RetailPrice: decPtr("1")})
	if !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewCatalogService(gdb)
	missing := uint(999)
	_, err := svc.CreateProduct(context.Background(), 1, ProductInput{CostPrice: dec("-1"), CategoryID: &missing, Stock: -2})
	v, ok := IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"sku", "name", "cost_price", "retail_price", "stock", "category_id"} {
		if _, ok := v[field]; !ok {
			t.Errorf("missing violation for %s in %v", field, v)
		}
	}
	var n int64
	gdb.Model(&models.Product{}).Count(&n)
	if n != 0 {
		t.Fatalf("nothing should be persisted, found %d products", n)
	}
}

func TestUpdateProductKeepsStock(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewCatalogService(gdb)
	p := seedProduct(t, gdb, "UP-1", "10", "8", 7)
	off := false
	out, err := svc.UpdateProduct(context.Background(), p.ID, ProductInput{
		SKU: "UP-1", Name: "Renamed", CostPrice: dec("5"), RetailPrice: decPtr("12"), Stock: 100, Active: &off,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Name != "Renamed" || out.Active || !out.RetailPrice.Equal(dec("12")) {
		t.Fatalf("unexpected product %+v", out)
	}
	if got := stockOf(t, gdb, p.ID); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
	if _, err := svc.UpdateProduct(context.Background(), 4242, ProductInput{SKU: "X", Name: "X", RetailPrice: decPtr("1")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewCatalogService(gdb)
	ctx := context.Background()
	p := seedProduct(t, gdb, "ST-1", "10", "8", 3)

	out, err := svc.AdjustStock(ctx, 1, p.ID, 4, models.StockRestock, "PO-12")
	if err != nil || out.Stock != 7 {
		t.Fatalf("restock: %+v, %v", out, err)
	}
	_, err = svc.AdjustStock(ctx, 1, p.ID, -8, models.StockAdjustment, "count")
	var se *StockError
	if !errors.As(err, &se) || !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected stock error, got %v", err)
	}
	if se.Available != 7 || se.Requested != 8 {
		t.Fatalf("unexpected stock error %+v", se)
	}
	if got := stockOf(t, gdb, p.ID); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
	if _, err := svc.AdjustStock(ctx, 1, p.ID, 1, "gift", ""); err == nil {
		t.Fatalf("expected unknown reason to fail")
	}
	if _, err := svc.AdjustStock(ctx, 1, 999, 1, models.StockRestock, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsAndLowStock(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewCatalogService(gdb)
	ctx := context.Background()
	seedProduct(t, gdb, "APL", "1", "1", 10)
	low := seedProduct(t, gdb, "BAN", "2", "2", 1)
	gone := seedProduct(t, gdb, "CHE", "3", "3", 0)
	if err := svc.DeleteProduct(ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteProduct(ctx, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	list, total, err := svc.ListProducts(ctx, ProductFilter{Search: "ban"})
	if err != nil || total != 1 || list[0].ID != low.ID {
		t.Fatalf("search = %v (%d), %v", list, total, err)
	}
	list, total, err = svc.ListProducts(ctx, ProductFilter{})
	if err != nil || total != 2 || len(list) != 2 {
		t.Fatalf("list = %d (%d), %v", len(list), total, err)
	}
	lows, err := svc.LowStock(ctx, 10)
	if err != nil || len(lows) != 1 || lows[0].ID != low.ID {
		t.Fatalf("low stock = %v, %v", lows, err)
	}
}
