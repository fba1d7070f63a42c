package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/validation"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrProductInactive    = errors.New("product_inactive")
	ErrDuplicateSKU       = errors.New("duplicate_sku")
	ErrDuplicateName      = errors.New("duplicate_name")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrNoItems            = errors.New("no_items")
	ErrAlreadyInvoiced    = errors.New("order_already_invoiced")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInUse              = errors.New("in_use")
)

// ValidationError carries field violations out of a service.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Violations))
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// StockError reports a product that cannot cover the requested quantity.
type StockError struct {
	ProductID uint `json:"product_id"`
	Requested int  `json:"requested"`
	Available int  `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// notFound maps gorm's record-not-found to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsValidation reports whether err carries field violations and returns them.
func IsValidation(err error) (validation.Violations, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations, true
	}
	return nil, false
}
