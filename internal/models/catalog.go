package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/cart"
)

type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
}

type Supplier struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	ContactName string         `gorm:"size:255" json:"contact_name,omitempty"`
	Email       string         `gorm:"size:255" json:"email,omitempty"`
	Phone       string         `gorm:"size:50" json:"phone,omitempty"`
	Address     string         `gorm:"size:500" json:"address,omitempty"`
}

// Product is a sellable catalog item. Prices are stored per unit.
type Product struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	SKU            string          `gorm:"uniqueIndex;size:64;not null" json:"sku"`
	Name           string          `gorm:"size:255;not null;index" json:"name"`
	Description    string          `gorm:"size:1000" json:"description,omitempty"`
	CategoryID     *uint           `gorm:"index" json:"category_id,omitempty"`
	Category       *Category       `json:"category,omitempty"`
	SupplierID     *uint           `gorm:"index" json:"supplier_id,omitempty"`
	Supplier       *Supplier       `json:"supplier,omitempty"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`
	RetailPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"retail_price"`
	WholesalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"wholesale_price"`
	Stock          int             `gorm:"not null;default:0" json:"stock"`
	ReorderLevel   int             `gorm:"not null;default:0" json:"reorder_level"`
	Unit           string          `gorm:"size:20;not null;default:'pcs'" json:"unit"`
	Active         bool            `gorm:"not null;index" json:"active"`
}

// CartProduct is the snapshot carried by a cart line.
func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		Stock:          p.Stock,
	}
}

// LowStock reports whether stock is at or below the reorder level.
func (p Product) LowStock() bool { return p.Stock <= p.ReorderLevel }

// StockReason explains a stock movement.
type StockReason string

const (
	StockSale       StockReason = "sale"
	StockRestock    StockReason = "restock"
	StockAdjustment StockReason = "adjustment"
	StockReturn     StockReason = "return"
)

// StockReasons lists the accepted reasons.
var StockReasons = []string{string(StockSale), string(StockRestock), string(StockAdjustment), string(StockReturn)}

// StockMovement is an append-only ledger entry for a product's stock.
type StockMovement struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	ProductID uint        `gorm:"not null;index" json:"product_id"`
	Delta     int         `gorm:"not null" json:"delta"`
	Reason    StockReason `gorm:"size:20;not null" json:"reason"`
	Reference string      `gorm:"size:100" json:"reference,omitempty"`
	UserID    uint        `gorm:"index" json:"user_id"`
}
