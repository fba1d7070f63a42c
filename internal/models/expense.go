package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseCategory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

type Expense struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
	Date          time.Time        `gorm:"not null;index" json:"date"`
	Amount        decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	CategoryID    uint             `gorm:"not null;index" json:"category_id"`
	Category      *ExpenseCategory `json:"category,omitempty"`
	SupplierID    *uint            `gorm:"index" json:"supplier_id,omitempty"`
	Description   string           `gorm:"size:500" json:"description,omitempty"`
	PaymentMethod string           `gorm:"size:30" json:"payment_method,omitempty"`
	UserID        uint             `gorm:"not null;index" json:"user_id"`
}

func (e *Expense) GetUserID() uint { return e.UserID }
