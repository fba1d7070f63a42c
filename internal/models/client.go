package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client is a customer that can be invoiced or quoted.
type Client struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"size:255;not null;index" json:"name"`
	Email      string         `gorm:"size:255" json:"email,omitempty"`
	Phone      string         `gorm:"size:50" json:"phone,omitempty"`
	Address    string         `gorm:"size:500" json:"address,omitempty"`
	City       string         `gorm:"size:100" json:"city,omitempty"`
	PostalCode string         `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string         `gorm:"size:100" json:"country,omitempty"`
	TaxNumber  string         `gorm:"size:50" json:"tax_number,omitempty"`
}

// FullAddress joins the address parts with newlines.
func (c Client) FullAddress() string {
	var parts []string
	if c.Address != "" {
		parts = append(parts, c.Address)
	}
	if line := strings.TrimSpace(c.PostalCode + " " + c.City); line != "" {
		parts = append(parts, line)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, "\n")
}
