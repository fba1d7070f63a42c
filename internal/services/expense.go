package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/validation"
)

type ExpenseInput struct {
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    uint            `json:"category_id"`
	SupplierID    *uint           `json:"supplier_id,omitempty"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method"`
}

type ExpenseFilter struct {
	From       time.Time
	To         time.Time
	CategoryID uint
	Page       httpx.Page
}

// CategoryTotal is the expense sum of one category.
type CategoryTotal struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
}

type ExpenseService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{db: db, now: time.Now}
}

func (s *ExpenseService) Create(ctx context.Context, userID uint, in ExpenseInput) (*models.Expense, error) {
	v := validation.Violations{}
	validation.PositiveDecimal("amount", in.Amount, v)
	validation.MaxLen("description", in.Description, 500, v)
	if in.PaymentMethod != "" {
		validation.OneOf("payment_method", in.PaymentMethod, cart.PaymentMethods, v)
	}
	var e models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CategoryID == 0 {
			v["category_id"] = "required"
		} else if err := tx.Select("id").First(&models.ExpenseCategory{}, in.CategoryID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			v["category_id"] = "not_found"
		}
		if in.SupplierID != nil {
			if err := tx.Select("id").First(&models.Supplier{}, *in.SupplierID).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				v["supplier_id"] = "not_found"
			}
		}
		if err := invalid(v); err != nil {
			return err
		}
		date := in.Date
		if date.IsZero() {
			date = s.now()
		}
		e = models.Expense{
			Date:          date,
			Amount:        in.Amount,
			CategoryID:    in.CategoryID,
			SupplierID:    in.SupplierID,
			Description:   strings.TrimSpace(in.Description),
			PaymentMethod: in.PaymentMethod,
			UserID:        userID,
		}
		return tx.Create(&e).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("expense recorded", zap.Uint("expense_id", e.ID), zap.String("amount", e.Amount.StringFixed(2)))
	return &e, nil
}

func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) ([]models.Expense, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{})
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Page.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []models.Expense
	err := q.Preload("Category").Order("date DESC, id DESC").Limit(limit).Offset(f.Page.Offset).Find(&out).Error
	return out, total, err
}

func (s *ExpenseService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Expense{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Total sums expenses dated in [from, to).
func (s *ExpenseService) Total(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	rows, err := s.ByCategory(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Total)
	}
	return sum, nil
}

// ByCategory groups expenses dated in [from, to) by category, largest first.
func (s *ExpenseService) ByCategory(ctx context.Context, from, to time.Time) ([]CategoryTotal, error) {
	q := s.db.WithContext(ctx).Preload("Category")
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date < ?", to)
	}
	var list []models.Expense
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	byID := map[uint]*CategoryTotal{}
	for _, e := range list {
		ct, ok := byID[e.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: e.CategoryID, Total: decimal.Zero}
			if e.Category != nil {
				ct.Name = e.Category.Name
			}
			byID[e.CategoryID] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(byID))
	for _, ct := range byID {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *ExpenseService) Categories(ctx context.Context) ([]models.ExpenseCategory, error) {
	var out []models.ExpenseCategory
	err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (s *ExpenseService) CreateCategory(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.MaxLen("name", name, 100, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.ExpenseCategory{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateName
	}
	c := models.ExpenseCategory{Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
