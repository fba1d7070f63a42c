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

const defaultPaymentTermsDays = 30

// InvoiceItemInput is one invoice line. When ProductID is set, empty
// description and nil unit price are taken from the product's retail price.
type InvoiceItemInput struct {
	ProductID   *uint            `json:"product_id,omitempty"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

type InvoiceInput struct {
	ClientID   uint               `json:"client_id"`
	IssueDate  time.Time          `json:"issue_date"`
	DueDate    *time.Time         `json:"due_date,omitempty"`
	TaxEnabled bool               `json:"tax_enabled"`
	Discount   decimal.Decimal    `json:"discount"`
	Notes      string             `json:"notes"`
	Items      []InvoiceItemInput `json:"items"`
}

type InvoiceFilter struct {
	Status   models.InvoiceStatus
	ClientID uint
	From     time.Time
	To       time.Time
	Page     httpx.Page
}

// InvoiceService handles invoice lifecycle and totals.
type InvoiceService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, now: time.Now}
}

// Totals prices the invoice from its items with the cart engine rules.
func (s *InvoiceService) Totals(inv *models.Invoice) cart.Breakdown {
	subtotal := decimal.Zero
	for _, it := range inv.Items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	return cart.Price(subtotal, inv.TaxEnabled, inv.Discount)
}

func applyTotals(inv *models.Invoice, b cart.Breakdown) {
	inv.Subtotal = b.Subtotal
	inv.Tax = b.Tax
	inv.Discount = b.Discount
	inv.Total = b.Total
}

// NextNumber returns the next INV-YYYY-NNNN number for year.
func (s *InvoiceService) NextNumber(ctx context.Context, year int) (string, error) {
	return nextNumber(s.db.WithContext(ctx), &models.Invoice{}, InvoicePrefix, year)
}

func paymentTerms(tx *gorm.DB) (int, error) {
	var c models.Company
	err := tx.Order("id ASC").Limit(1).Find(&c).Error
	if err != nil {
		return 0, err
	}
	if c.ID == 0 || c.PaymentTermsDays <= 0 {
		return defaultPaymentTermsDays, nil
	}
	return c.PaymentTermsDays, nil
}

func requireClient(tx *gorm.DB, id uint, v validation.Violations) error {
	if id == 0 {
		v["client_id"] = "required"
		return nil
	}
	var n int64
	if err := tx.Model(&models.Client{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		v["client_id"] = "not_found"
	}
	return nil
}

// Create stores a draft invoice.
func (s *InvoiceService) Create(ctx context.Context, userID uint, in InvoiceInput) (*models.Invoice, error) {
	v := validation.Violations{}
	validation.NonNegativeDecimal("discount", in.Discount, v)
	validation.MaxLen("notes", in.Notes, 1000, v)
	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	var inv models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireClient(tx, in.ClientID, v); err != nil {
			return err
		}
		items, err := resolveInvoiceItems(tx, in.Items, v)
		if err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		issue := in.IssueDate
		if issue.IsZero() {
			issue = s.now()
		}
		inv = models.Invoice{
			UserID:     userID,
			ClientID:   in.ClientID,
			IssueDate:  issue,
			Status:     models.InvoiceDraft,
			TaxEnabled: in.TaxEnabled,
			Discount:   in.Discount,
			Notes:      strings.TrimSpace(in.Notes),
			Items:      items,
		}
		if in.DueDate != nil {
			inv.DueDate = *in.DueDate
		} else {
			days, err := paymentTerms(tx)
			if err != nil {
				return err
			}
			inv.DueDate = issue.AddDate(0, 0, days)
		}
		if inv.DueDate.Before(issue) {
			v["due_date"] = "before_issue_date"
			return invalid(v)
		}
		return s.insert(tx, &inv)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("invoice created", zap.String("invoice", inv.Number), zap.Uint("client_id", inv.ClientID))
	return &inv, nil
}

// insert numbers, prices and stores inv with its items.
func (s *InvoiceService) insert(tx *gorm.DB, inv *models.Invoice) error {
	num, err := nextNumber(tx, &models.Invoice{}, InvoicePrefix, inv.IssueDate.Year())
	if err != nil {
		return err
	}
	inv.Number = num
	for i := range inv.Items {
		inv.Items[i].Position = i + 1
	}
	applyTotals(inv, s.Totals(inv))
	return tx.Create(inv).Error
}

func resolveInvoiceItems(tx *gorm.DB, in []InvoiceItemInput, v validation.Violations) ([]models.InvoiceItem, error) {
	var ids []uint
	for _, it := range in {
		if it.ProductID != nil {
			ids = append(ids, *it.ProductID)
		}
	}
	products, err := productsByID(tx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]models.InvoiceItem, 0, len(in))
	for i, it := range in {
		field := "items[" + strconv.Itoa(i) + "]"
		item := models.InvoiceItem{ProductID: it.ProductID, Description: strings.TrimSpace(it.Description), Quantity: it.Quantity}
		if it.ProductID != nil {
			p, ok := products[*it.ProductID]
			if !ok {
				v[field+".product_id"] = "not_found"
				continue
			}
			if item.Description == "" {
				item.Description = p.Name
			}
			item.UnitPrice = p.RetailPrice
		}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		validation.Required(field+".description", item.Description, v)
		validation.PositiveInt(field+".quantity", item.Quantity, v)
		validation.NonNegativeDecimal(field+".unit_price", item.UnitPrice, v)
		items = append(items, item)
	}
	return items, nil
}

// CreateFromOrder invoices a completed order for clientID. The invoice is
// already paid since the order was settled at the till.
func (s *InvoiceService) CreateFromOrder(ctx context.Context, userID, orderID, clientID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
			return notFound(err)
		}
		if o.Status != models.OrderCompleted {
			return ErrInvalidTransition
		}
		var n int64
		if err := tx.Model(&models.Invoice{}).Where("order_id = ? AND status <> ?", o.ID, models.InvoiceCancelled).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyInvoiced
		}
		if clientID == 0 && o.ClientID != nil {
			clientID = *o.ClientID
		}
		v := validation.Violations{}
		if err := requireClient(tx, clientID, v); err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		paidAt := o.CreatedAt
		inv = models.Invoice{
			UserID:     userID,
			ClientID:   clientID,
			OrderID:    &o.ID,
			IssueDate:  s.now(),
			DueDate:    s.now(),
			PaidAt:     &paidAt,
			Status:     models.InvoicePaid,
			TaxEnabled: o.TaxEnabled,
			Discount:   o.Discount,
		}
		for _, it := range o.Items {
			pid := it.ProductID
			inv.Items = append(inv.Items, models.InvoiceItem{
				ProductID:   &pid,
				Description: it.Name,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			})
		}
		return s.insert(tx, &inv)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("invoice created from order", zap.String("invoice", inv.Number), zap.Uint("order_id", orderID))
	return &inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Client").
		First(&inv, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if !f.From.IsZero() {
		q = q.Where("issue_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("issue_date < ?", f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Page.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []models.Invoice
	err := q.Preload("Client").Order("issue_date DESC, id DESC").Limit(limit).Offset(f.Page.Offset).Find(&out).Error
	return out, total, err
}

// transition loads the invoice, checks it is in one of from, then applies fn
// and saves the changed columns.
func (s *InvoiceService) transition(ctx context.Context, id uint, from []models.InvoiceStatus, fn func(tx *gorm.DB, inv *models.Invoice) error) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&inv, id).Error; err != nil {
			return notFound(err)
		}
		ok := false
		for _, st := range from {
			if inv.Status == st {
				ok = true
			}
		}
		if !ok {
			return ErrInvalidTransition
		}
		if err := fn(tx, &inv); err != nil {
			return err
		}
		return tx.Model(&inv).Select("Status", "PaidAt").Updates(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Finalize locks a draft invoice with at least one item.
func (s *InvoiceService) Finalize(ctx context.Context, id uint) (*models.Invoice, error) {
	inv, err := s.transition(ctx, id, []models.InvoiceStatus{models.InvoiceDraft}, func(_ *gorm.DB, inv *models.Invoice) error {
		if len(inv.Items) == 0 {
			return ErrNoItems
		}
		inv.Status = models.InvoiceFinal
		return nil
	})
	if err == nil {
		logging.FromContext(ctx).Info("invoice finalized", zap.String("invoice", inv.Number))
	}
	return inv, err
}

// MarkPaid settles a final invoice and records the payment.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint, method cart.PaymentMethod) (*models.Invoice, error) {
	if method == "" {
		method = cart.BankTransfer
	}
	if !method.Valid() {
		return nil, cart.ErrUnknownPayment
	}
	inv, err := s.transition(ctx, id, []models.InvoiceStatus{models.InvoiceFinal}, func(tx *gorm.DB, inv *models.Invoice) error {
		now := s.now()
		inv.Status = models.InvoicePaid
		inv.PaidAt = &now
		return tx.Create(&models.Payment{InvoiceID: &inv.ID, Method: string(method), Amount: inv.Total, PaidAt: now}).Error
	})
	if err == nil {
		logging.FromContext(ctx).Info("invoice paid", zap.String("invoice", inv.Number), zap.String("method", string(method)))
	}
	return inv, err
}

// Cancel voids a draft or final invoice.
func (s *InvoiceService) Cancel(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.transition(ctx, id, []models.InvoiceStatus{models.InvoiceDraft, models.InvoiceFinal}, func(_ *gorm.DB, inv *models.Invoice) error {
		inv.Status = models.InvoiceCancelled
		return nil
	})
}

// Revenue sums the totals of invoices paid in [from, to). Invoices raised
// for till orders are excluded by default since the order already counts.
func (s *InvoiceService) Revenue(ctx context.Context, from, to time.Time, includeOrders bool) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("status = ?", models.InvoicePaid)
	if !from.IsZero() {
		q = q.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("paid_at < ?", to)
	}
	if !includeOrders {
		q = q.Where("order_id IS NULL")
	}
	var totals []decimal.Decimal
	if err := q.Pluck("total", &totals).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t)
	}
	return sum, nil
}
