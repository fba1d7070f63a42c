package services

import (
	"context"
	"strconv"
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

const defaultQuoteValidityDays = 30

type QuoteItemInput struct {
	ProductID   uint            `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Basis       cart.PriceBasis `json:"basis,omitempty"`
	Description string          `json:"description,omitempty"`
}

type QuoteInput struct {
	ClientID   uint             `json:"client_id"`
	IssueDate  time.Time        `json:"issue_date"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	Basis      cart.PriceBasis  `json:"basis,omitempty"`
	TaxEnabled bool             `json:"tax_enabled"`
	Discount   decimal.Decimal  `json:"discount"`
	Notes      string           `json:"notes"`
	Items      []QuoteItemInput `json:"items"`
}

type QuoteFilter struct {
	Status   models.QuoteStatus
	ClientID uint
	Page     httpx.Page
}

// quoteTransitions lists the statuses reachable through SetStatus.
// Converted is only reachable through Convert.
var quoteTransitions = map[models.QuoteStatus][]models.QuoteStatus{
	models.QuoteDraft:    {models.QuoteSent, models.QuoteRejected},
	models.QuoteSent:     {models.QuoteAccepted, models.QuoteRejected},
	models.QuoteAccepted: {models.QuoteRejected},
}

// QuoteService prices quotes with the cart engine and turns them into
// invoices.
type QuoteService struct {
	db       *gorm.DB
	invoices *InvoiceService
	now      func() time.Time
}

func NewQuoteService(db *gorm.DB, invoices *InvoiceService) *QuoteService {
	return &QuoteService{db: db, invoices: invoices, now: time.Now}
}

// Create stores a draft quote. Every line is priced from its product with
// the line's own basis, falling back to the quote basis.
func (s *QuoteService) Create(ctx context.Context, userID uint, in QuoteInput) (*models.Quote, error) {
	v := validation.Violations{}
	c := cart.New()
	if in.Basis != "" {
		var err error
		if c, err = cart.WithBasis(c, in.Basis); err != nil {
			v["basis"] = "invalid_choice"
		}
	}
	c = cart.WithTax(c, in.TaxEnabled)
	if nc, err := cart.WithDiscount(c, in.Discount); err != nil {
		v["discount"] = "must_not_be_negative"
	} else {
		c = nc
	}
	validation.MaxLen("notes", in.Notes, 1000, v)
	if len(in.Items) == 0 {
		v["items"] = "required"
	}

	var q models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireClient(tx, in.ClientID, v); err != nil {
			return err
		}
		ids := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := productsByID(tx, ids)
		if err != nil {
			return err
		}
		descriptions := map[uint]string{}
		for i, it := range in.Items {
			field := "items[" + strconv.Itoa(i) + "]"
			p, ok := products[it.ProductID]
			if !ok {
				v[field+".product_id"] = "not_found"
				continue
			}
			validation.PositiveInt(field+".quantity", it.Quantity, v)
			if it.Basis != "" && !it.Basis.Valid() {
				v[field+".basis"] = "invalid_choice"
			}
			c = cart.AddLine(c, p.CartProduct(), it.Quantity, it.Basis)
			if d := strings.TrimSpace(it.Description); d != "" {
				descriptions[p.ID] = d
			}
		}
		if err := invalid(v); err != nil {
			return err
		}

		issue := in.IssueDate
		if issue.IsZero() {
			issue = s.now()
		}
		validUntil := issue.AddDate(0, 0, defaultQuoteValidityDays)
		if in.ValidUntil != nil {
			validUntil = *in.ValidUntil
		}
		basis := c.PriceBasis()
		b := cart.Summarize(c)
		q = models.Quote{
			UserID:     userID,
			ClientID:   in.ClientID,
			IssueDate:  issue,
			ValidUntil: validUntil,
			Status:     models.QuoteDraft,
			Basis:      string(basis),
			TaxEnabled: c.TaxEnabled,
			Discount:   b.Discount,
			Subtotal:   b.Subtotal,
			Tax:        b.Tax,
			Total:      b.Total,
			Notes:      strings.TrimSpace(in.Notes),
		}
		for i, l := range c.Lines {
			desc := descriptions[l.Product.ID]
			if desc == "" {
				desc = l.Product.Name
			}
			q.Items = append(q.Items, models.QuoteItem{
				ProductID:   l.Product.ID,
				Description: desc,
				Quantity:    l.Quantity,
				Basis:       string(l.Basis),
				UnitPrice:   l.UnitPrice(basis),
				Position:    i + 1,
			})
		}
		num, err := nextNumber(tx, &models.Quote{}, QuotePrefix, issue.Year())
		if err != nil {
			return err
		}
		q.Number = num
		return tx.Create(&q).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("quote created", zap.String("quote", q.Number), zap.String("total", q.Total.StringFixed(2)))
	return &q, nil
}

func (s *QuoteService) Get(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Client").
		First(&q, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (s *QuoteService) List(ctx context.Context, f QuoteFilter) ([]models.Quote, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Quote{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Page.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []models.Quote
	err := q.Preload("Client").Order("issue_date DESC, id DESC").Limit(limit).Offset(f.Page.Offset).Find(&out).Error
	return out, total, err
}

// CanTransition reports whether SetStatus accepts from → to.
func CanTransition(from, to models.QuoteStatus) bool {
	for _, st := range quoteTransitions[from] {
		if st == to {
			return true
		}
	}
	return false
}

func (s *QuoteService) SetStatus(ctx context.Context, id uint, status models.QuoteStatus) (*models.Quote, error) {
	var q models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&q, id).Error; err != nil {
			return notFound(err)
		}
		if !CanTransition(q.Status, status) {
			return ErrInvalidTransition
		}
		q.Status = status
		return tx.Model(&q).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Convert turns a sent or accepted quote into a draft invoice with the same
// lines and figures.
func (s *QuoteService) Convert(ctx context.Context, id, userID uint) (*models.Invoice, error) {
	var inv models.Invoice
	var q models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).First(&q, id).Error; err != nil {
			return notFound(err)
		}
		if q.Status != models.QuoteSent && q.Status != models.QuoteAccepted {
			return ErrInvalidTransition
		}
		days, err := paymentTerms(tx)
		if err != nil {
			return err
		}
		issue := s.now()
		inv = models.Invoice{
			UserID:     userID,
			ClientID:   q.ClientID,
			IssueDate:  issue,
			DueDate:    issue.AddDate(0, 0, days),
			Status:     models.InvoiceDraft,
			TaxEnabled: q.TaxEnabled,
			Discount:   q.Discount,
			Notes:      q.Notes,
		}
		for _, it := range q.Items {
			pid := it.ProductID
			inv.Items = append(inv.Items, models.InvoiceItem{
				ProductID:   &pid,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			})
		}
		if err := s.invoices.insert(tx, &inv); err != nil {
			return err
		}
		q.Status = models.QuoteConverted
		q.ConvertedInvoiceID = &inv.ID
		return tx.Model(&q).Select("Status", "ConvertedInvoiceID").Updates(&q).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("quote converted", zap.String("quote", q.Number), zap.String("invoice", inv.Number))
	return &inv, nil
}
