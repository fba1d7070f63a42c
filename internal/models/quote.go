package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteConverted QuoteStatus = "converted"
)

type Quote struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Number             string          `gorm:"uniqueIndex;size:40;not null" json:"number"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	ClientID           uint            `gorm:"not null;index" json:"client_id"`
	Client             *Client         `json:"client,omitempty"`
	IssueDate          time.Time       `gorm:"not null;index" json:"issue_date"`
	ValidUntil         time.Time       `gorm:"not null" json:"valid_until"`
	Status             QuoteStatus     `gorm:"size:20;not null;index" json:"status"`
	Basis              string          `gorm:"size:20;not null" json:"basis"`
	TaxEnabled         bool            `gorm:"not null" json:"tax_enabled"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Notes              string          `gorm:"size:1000" json:"notes,omitempty"`
	ConvertedInvoiceID *uint           `json:"converted_invoice_id,omitempty"`
	Items              []QuoteItem     `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
}

func (q *Quote) GetUserID() uint { return q.UserID }

// QuoteItem carries its own price basis, which may differ from the quote's.
type QuoteItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	QuoteID     uint            `gorm:"not null;index" json:"quote_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Basis       string          `gorm:"size:20" json:"basis,omitempty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Position    int             `gorm:"not null" json:"position"`
}

func (it QuoteItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
