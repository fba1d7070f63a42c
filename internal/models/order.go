package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
	OrderVoided    OrderStatus = "voided"
)

// Order is a completed point-of-sale checkout.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Number        string          `gorm:"uniqueIndex;size:40;not null" json:"number"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	ClientID      *uint           `gorm:"index" json:"client_id,omitempty"`
	Client        *Client         `json:"client,omitempty"`
	Basis         string          `gorm:"size:20;not null" json:"basis"`
	TaxEnabled    bool            `gorm:"not null" json:"tax_enabled"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod string          `gorm:"size:30;not null" json:"payment_method"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	ChangeDue     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"change_due"`
	Status        OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (o *Order) GetUserID() uint { return o.UserID }

// OrderItem snapshots the product at sale time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	SKU       string          `gorm:"size:64" json:"sku"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"-"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}

// Payment records money received for an order or an invoice.
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	OrderID   *uint           `gorm:"index" json:"order_id,omitempty"`
	InvoiceID *uint           `gorm:"index" json:"invoice_id,omitempty"`
	Method    string          `gorm:"size:30;not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null;index" json:"paid_at"`
}
