package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceFinal     InvoiceStatus = "final"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice totals are recomputed from the items whenever they change and
// stored so reports do not need to re-price.
type Invoice struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Number     string          `gorm:"uniqueIndex;size:40;not null" json:"number"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	ClientID   uint            `gorm:"not null;index" json:"client_id"`
	Client     *Client         `json:"client,omitempty"`
	OrderID    *uint           `gorm:"index" json:"order_id,omitempty"`
	IssueDate  time.Time       `gorm:"not null;index" json:"issue_date"`
	DueDate    time.Time       `gorm:"not null" json:"due_date"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Status     InvoiceStatus   `gorm:"size:20;not null;index" json:"status"`
	TaxEnabled bool            `gorm:"not null" json:"tax_enabled"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Notes      string          `gorm:"size:1000" json:"notes,omitempty"`
	Items      []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

func (i *Invoice) GetUserID() uint { return i.UserID }

type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	ProductID   *uint           `gorm:"index" json:"product_id,omitempty"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Position    int             `gorm:"not null" json:"position"`
}

// LineTotal is quantity times unit price.
func (it InvoiceItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
