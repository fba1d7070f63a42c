package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/dbtest"
	"github.com/diewo77/go-stockpos/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.OpenSeeded(t)
}

func seedProduct(t *testing.T, gdb *gorm.DB, sku, retail, wholesale string, stock int) *models.Product {
	t.Helper()
	svc := NewCatalogService(gdb)
	p, err := svc.CreateProduct(context.Background(), 1, ProductInput{
		SKU:            sku,
		Name:           "Product " + sku,
		CostPrice:      dec(retail).Div(dec("2")).Round(2),
		RetailPrice:    decPtr(retail),
		WholesalePrice: decPtr(wholesale),
		Stock:          stock,
		ReorderLevel:   2,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", sku, err)
	}
	return p
}

func seedClient(t *testing.T, gdb *gorm.DB, name string) *models.Client {
	t.Helper()
	c := models.Client{Name: name, Email: "billing@example.com"}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return &c
}

func stockOf(t *testing.T, gdb *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	if err := gdb.Unscoped().First(&p, id).Error; err != nil {
		t.Fatalf("load product %d: %v", id, err)
	}
	return p.Stock
}
