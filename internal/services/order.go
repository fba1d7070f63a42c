package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/models"
)

// OrderNumberPrefix prefixes every order number.
const OrderNumberPrefix = "ORD-"

// OrderService persists checkouts. It is the order-submission collaborator
// of the POS register.
type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: time.Now}
}

// CheckoutItem is one line of a stateless checkout.
type CheckoutItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Basis     cart.PriceBasis `json:"basis,omitempty"`
}

// CheckoutInput is the body of a stateless checkout where the client kept
// the cart itself.
type CheckoutInput struct {
	Items         []CheckoutItem     `json:"items"`
	Basis         cart.PriceBasis    `json:"basis,omitempty"`
	TaxEnabled    bool               `json:"tax_enabled"`
	Discount      decimal.Decimal    `json:"discount"`
	PaymentMethod cart.PaymentMethod `json:"payment_method"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	ClientID      *uint              `json:"client_id,omitempty"`
}

// OrderFilter narrows List. Zero values match everything.
type OrderFilter struct {
	UserID uint
	Status models.OrderStatus
	From   time.Time
	To     time.Time
	Page   httpx.Page
}

// SubmitOrder records req as a completed order for userID.
func (s *OrderService) SubmitOrder(ctx context.Context, userID uint, req cart.OrderRequest) (*models.Order, error) {
	return s.SubmitOrderFor(ctx, userID, nil, req)
}

// SubmitOrderFor is SubmitOrder with an optional client attached.
//
// Everything happens in one transaction: products must exist and be active,
// each stock decrement is conditional on enough units remaining, and the
// order, its items, the stock movements and the payment are written
// together. Totals are recomputed from the lines so a payload whose figures
// disagree with its lines cannot be stored.
func (s *OrderService) SubmitOrderFor(ctx context.Context, userID uint, clientID *uint, req cart.OrderRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, cart.ErrUnknownPayment
	}
	if req.Breakdown.Discount.IsNegative() {
		return nil, cart.ErrNegativeDiscount
	}
	subtotal := decimal.Zero
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("product %d: quantity %d: %w", l.ProductID, l.Quantity, errInvalidQuantity)
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	b := cart.Price(subtotal, req.TaxEnabled, req.Breakdown.Discount)
	paid := req.AmountPaid
	if paid.IsZero() {
		paid = b.Total
	}
	if paid.LessThan(b.Total) {
		return nil, cart.ErrInsufficientPayment
	}

	basis := req.Basis
	if !basis.Valid() {
		basis = cart.Retail
	}
	order := models.Order{
		Number:        OrderNumberPrefix + ulid.Make().String(),
		UserID:        userID,
		ClientID:      clientID,
		Basis:         string(basis),
		TaxEnabled:    req.TaxEnabled,
		Subtotal:      b.Subtotal,
		Tax:           b.Tax,
		Discount:      b.Discount,
		Total:         b.Total,
		PaymentMethod: string(req.PaymentMethod),
		AmountPaid:    paid,
		ChangeDue:     paid.Sub(b.Total),
		Status:        models.OrderCompleted,
	}

	// Lock rows in id order so concurrent checkouts cannot deadlock.
	lines := slices.Clone(req.Lines)
	slices.SortFunc(lines, func(a, b cart.OrderLine) int { return cmp.Compare(a.ProductID, b.ProductID) })

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clientID != nil {
			if err := tx.Select("id").First(&models.Client{}, *clientID).Error; err != nil {
				return fmt.Errorf("client %d: %w", *clientID, notFound(err))
			}
		}
		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			var p models.Product
			if err := tx.First(&p, l.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return productError(l.ProductID)
				}
				return err
			}
			if !p.Active {
				return fmt.Errorf("product %d: %w", p.ID, ErrProductInactive)
			}
			if err := moveStock(tx, &p, -l.Quantity); err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				SKU:       p.SKU,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				UnitCost:  p.CostPrice,
				LineTotal: l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
			})
		}
		order.Items = items
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, it := range items {
			mv := models.StockMovement{ProductID: it.ProductID, Delta: -it.Quantity, Reason: models.StockSale, Reference: order.Number, UserID: userID}
			if err := tx.Create(&mv).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.Payment{
			OrderID: &order.ID,
			Method:  order.PaymentMethod,
			Amount:  order.Total,
			PaidAt:  s.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("checkout completed",
		zap.String("order", order.Number),
		zap.Uint("user_id", userID),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("payment_method", order.PaymentMethod))
	return &order, nil
}

var errInvalidQuantity = errors.New("invalid_quantity")

// CheckoutFromItems prices the items from the current catalog and submits
// them through SubmitOrderFor.
func (s *OrderService) CheckoutFromItems(ctx context.Context, userID uint, in CheckoutInput) (*models.Order, error) {
	c, err := s.buildCart(ctx, in)
	if err != nil {
		return nil, err
	}
	req, err := cart.NewOrderRequest(c, cart.Payment{Method: in.PaymentMethod, AmountPaid: in.AmountPaid})
	if err != nil {
		return nil, err
	}
	return s.SubmitOrderFor(ctx, userID, in.ClientID, req)
}

func (s *OrderService) buildCart(ctx context.Context, in CheckoutInput) (cart.Cart, error) {
	c := cart.New()
	if in.Basis != "" {
		var err error
		if c, err = cart.WithBasis(c, in.Basis); err != nil {
			return c, err
		}
	}
	c = cart.WithTax(c, in.TaxEnabled)
	c, err := cart.WithDiscount(c, in.Discount)
	if err != nil {
		return c, err
	}
	ids := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return c, fmt.Errorf("product %d: quantity %d: %w", it.ProductID, it.Quantity, errInvalidQuantity)
		}
		if it.Basis != "" && !it.Basis.Valid() {
			return c, cart.ErrUnknownPriceBasis
		}
		ids = append(ids, it.ProductID)
	}
	products, err := productsByID(s.db.WithContext(ctx), ids)
	if err != nil {
		return c, err
	}
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return c, productError(it.ProductID)
		}
		c = cart.AddLine(c, p.CartProduct(), it.Quantity, it.Basis)
	}
	return c, nil
}

// IsInvalidQuantity reports whether err came from a line quantity below 1.
func IsInvalidQuantity(err error) bool { return errors.Is(err, errInvalidQuantity) }

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Client").
		First(&o, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// List returns one page of orders, newest first, and the match count.
func (s *OrderService) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Page.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []models.Order
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Page.Offset).Find(&out).Error
	return out, total, err
}

// Void cancels a completed order and returns its units to stock. An
// invoice raised from the order is cancelled with it.
func (s *OrderService) Void(ctx context.Context, id, userID uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, id).Error; err != nil {
			return notFound(err)
		}
		if o.Status != models.OrderCompleted {
			return ErrInvalidTransition
		}
		for _, it := range o.Items {
			p := models.Product{ID: it.ProductID}
			// Soft-deleted products still get their units back.
			if err := tx.Unscoped().Model(&p).UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
			mv := models.StockMovement{ProductID: it.ProductID, Delta: it.Quantity, Reason: models.StockReturn, Reference: o.Number, UserID: userID}
			if err := tx.Create(&mv).Error; err != nil {
				return err
			}
		}
		// An invoice raised from the order goes with it.
		err := tx.Model(&models.Invoice{}).
			Where("order_id = ? AND status <> ?", o.ID, models.InvoiceCancelled).
			Update("status", models.InvoiceCancelled).Error
		if err != nil {
			return err
		}
		now := s.now()
		o.Status = models.OrderVoided
		o.VoidedAt = &now
		return tx.Model(&o).Select("Status", "VoidedAt").Updates(&o).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order voided", zap.String("order", o.Number), zap.Uint("user_id", userID))
	return &o, nil
}
