package services

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	InvoicePrefix = "INV"
	QuotePrefix   = "QUO"
)

// nextNumber returns the next PREFIX-YYYY-NNNN number for model. The
// sequence restarts every year and is derived from the highest number
// already issued, so gaps left by deleted rows are never reused.
func nextNumber(tx *gorm.DB, model any, prefix string, year int) (string, error) {
	head := fmt.Sprintf("%s-%04d-", prefix, year)
	var found []string
	err := tx.Unscoped().Model(model).
		Where("number LIKE ?", head+"%").
		// Longer numbers are larger once the sequence outgrows its padding.
		Order("LENGTH(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &found).Error
	if err != nil {
		return "", err
	}
	seq := 0
	if len(found) > 0 {
		last := found[0]
		n, err := strconv.Atoi(strings.TrimPrefix(last, head))
		if err != nil {
			return "", fmt.Errorf("unexpected document number %q: %w", last, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s%04d", head, seq+1), nil
}
