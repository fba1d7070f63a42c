// Package models holds the gorm-mapped entities.
package models

// Ownable is implemented by records that belong to a user.
type Ownable interface {
	GetUserID() uint
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&Permission{}, &Profile{}, &User{},
		&Company{},
		&Category{}, &Supplier{}, &Product{}, &StockMovement{},
		&Client{},
		&Order{}, &OrderItem{},
		&Invoice{}, &InvoiceItem{},
		&Quote{}, &QuoteItem{},
		&Payment{},
		&ExpenseCategory{}, &Expense{},
		&IdempotencyRecord{},
	}
}
