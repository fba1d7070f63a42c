package models

import (
	"strings"
	"time"
)

// Company holds the business details printed on invoices, quotes and
// receipts. There is a single row.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string `gorm:"size:255;not null" json:"name"`
	Email      string `gorm:"size:255" json:"email,omitempty"`
	Phone      string `gorm:"size:50" json:"phone,omitempty"`
	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
	TaxNumber  string `gorm:"size:50" json:"tax_number,omitempty"`
	Currency   string `gorm:"size:3;not null;default:'USD'" json:"currency"`
	// PaymentTermsDays is the default invoice due delay.
	PaymentTermsDays int    `gorm:"not null;default:30" json:"payment_terms_days"`
	Footer           string `gorm:"size:500" json:"footer,omitempty"`
}

// AddressLines returns the non-empty address parts, one per line.
func (c Company) AddressLines() []string {
	var lines []string
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if city := strings.TrimSpace(c.PostalCode + " " + c.City); city != "" {
		lines = append(lines, city)
	}
	if c.Country != "" {
		lines = append(lines, c.Country)
	}
	return lines
}
