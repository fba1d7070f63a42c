package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/validation"
)

type CompanyInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	City             string `json:"city"`
	PostalCode       string `json:"postal_code"`
	Country          string `json:"country"`
	TaxNumber        string `json:"tax_number"`
	Currency         string `json:"currency"`
	PaymentTermsDays int    `json:"payment_terms_days"`
	Footer           string `json:"footer"`
}

// CompanyService reads and writes the single company record.
type CompanyService struct{ DB *gorm.DB }

func NewCompanyService(db *gorm.DB) *CompanyService { return &CompanyService{DB: db} }

// Get returns the company record, or a placeholder when none was seeded.
func (s *CompanyService) Get(ctx context.Context) (*models.Company, error) {
	var c models.Company
	if err := s.DB.WithContext(ctx).Order("id ASC").Limit(1).Find(&c).Error; err != nil {
		return nil, err
	}
	if c.ID == 0 {
		c.Currency = "USD"
		c.PaymentTermsDays = defaultPaymentTermsDays
	}
	return &c, nil
}

// Update overwrites the company details, creating the record if needed.
func (s *CompanyService) Update(ctx context.Context, in CompanyInput) (*models.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	if in.Email != "" {
		validation.Email("email", in.Email, v)
	}
	if in.Currency == "" {
		in.Currency = "USD"
	} else if len(in.Currency) != 3 {
		v["currency"] = "invalid_currency"
	}
	if in.PaymentTermsDays == 0 {
		in.PaymentTermsDays = defaultPaymentTermsDays
	}
	validation.PositiveInt("payment_terms_days", in.PaymentTermsDays, v)
	validation.MaxLen("footer", in.Footer, 500, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	c.TaxNumber = in.TaxNumber
	c.Currency = in.Currency
	c.PaymentTermsDays = in.PaymentTermsDays
	c.Footer = in.Footer
	if err := s.DB.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("company settings updated", zap.String("name", c.Name))
	return c, nil
}
