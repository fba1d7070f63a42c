package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/validation"
)

var hundred = decimal.NewFromInt(100)

// ApplyMargin returns cost marked up by marginPercent, rounded to cents.
func ApplyMargin(cost, marginPercent decimal.Decimal) decimal.Decimal {
	return cost.Mul(hundred.Add(marginPercent)).Div(hundred).Round(2)
}

// MarginPercent returns the markup of price over cost in percent, rounded
// to two places. A zero cost yields zero.
func MarginPercent(cost, price decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(cost).Mul(hundred).Round(2)
}

// ProductInput is the writable part of a product. Nil prices are derived
// from the cost and the matching margin.
type ProductInput struct {
	SKU                    string           `json:"sku"`
	Name                   string           `json:"name"`
	Description            string           `json:"description"`
	CategoryID             *uint            `json:"category_id"`
	SupplierID             *uint            `json:"supplier_id"`
	CostPrice              decimal.Decimal  `json:"cost_price"`
	RetailPrice            *decimal.Decimal `json:"retail_price"`
	WholesalePrice         *decimal.Decimal `json:"wholesale_price"`
	RetailMarginPercent    *decimal.Decimal `json:"retail_margin_percent"`
	WholesaleMarginPercent *decimal.Decimal `json:"wholesale_margin_percent"`
	Stock                  int              `json:"stock"`
	ReorderLevel           int              `json:"reorder_level"`
	Unit                   string           `json:"unit"`
	Active                 *bool            `json:"active"`
}

func (in *ProductInput) normalize() {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Name = strings.TrimSpace(in.Name)
	if in.Unit == "" {
		in.Unit = "pcs"
	}
	if in.RetailPrice == nil && in.RetailMarginPercent != nil {
		p := ApplyMargin(in.CostPrice, *in.RetailMarginPercent)
		in.RetailPrice = &p
	}
	if in.WholesalePrice == nil && in.WholesaleMarginPercent != nil {
		p := ApplyMargin(in.CostPrice, *in.WholesaleMarginPercent)
		in.WholesalePrice = &p
	}
}

// Validate checks a normalized input.
func (in ProductInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("sku", in.SKU, v)
	validation.MaxLen("sku", in.SKU, 64, v)
	validation.Required("name", in.Name, v)
	validation.NonNegativeDecimal("cost_price", in.CostPrice, v)
	if in.RetailPrice == nil {
		v["retail_price"] = "required"
	} else {
		validation.PositiveDecimal("retail_price", *in.RetailPrice, v)
	}
	if in.WholesalePrice != nil {
		validation.NonNegativeDecimal("wholesale_price", *in.WholesalePrice, v)
	}
	if in.RetailMarginPercent != nil {
		validation.RangeDecimal("retail_margin_percent", *in.RetailMarginPercent, hundred.Neg(), decimal.NewFromInt(10000), v)
	}
	validation.NonNegativeInt("stock", in.Stock, v)
	validation.NonNegativeInt("reorder_level", in.ReorderLevel, v)
	return v
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Search     string
	CategoryID uint
	SupplierID uint
	LowStock   bool
	ActiveOnly bool
	Page       httpx.Page
}

// CatalogService owns products and their stock ledger.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService { return &CatalogService{db: db} }

func (s *CatalogService) checkRefs(tx *gorm.DB, in ProductInput, v validation.Violations) error {
	if in.CategoryID != nil {
		var n int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			v["category_id"] = "not_found"
		}
	}
	if in.SupplierID != nil {
		var n int64
		if err := tx.Model(&models.Supplier{}).Where("id = ?", *in.SupplierID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			v["supplier_id"] = "not_found"
		}
	}
	return nil
}

func (s *CatalogService) skuTaken(tx *gorm.DB, sku string, exceptID uint) (bool, error) {
	var n int64
	q := tx.Unscoped().Model(&models.Product{}).Where("sku = ?", sku)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// CreateProduct inserts a product. Opening stock is recorded as a restock.
func (s *CatalogService) CreateProduct(ctx context.Context, userID uint, in ProductInput) (*models.Product, error) {
	in.normalize()
	v := in.Validate()
	p := models.Product{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkRefs(tx, in, v); err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		taken, err := s.skuTaken(tx, in.SKU, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSKU
		}
		p = models.Product{
			SKU:          in.SKU,
			Name:         in.Name,
			Description:  in.Description,
			CategoryID:   in.CategoryID,
			SupplierID:   in.SupplierID,
			CostPrice:    in.CostPrice,
			RetailPrice:  *in.RetailPrice,
			Stock:        in.Stock,
			ReorderLevel: in.ReorderLevel,
			Unit:         in.Unit,
			Active:       in.Active == nil || *in.Active,
		}
		p.WholesalePrice = p.RetailPrice
		if in.WholesalePrice != nil {
			p.WholesalePrice = *in.WholesalePrice
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if p.Stock > 0 {
			return tx.Create(&models.StockMovement{ProductID: p.ID, Delta: p.Stock, Reason: models.StockRestock, Reference: "opening stock", UserID: userID}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("product created", zap.Uint("product_id", p.ID), zap.String("sku", p.SKU))
	return &p, nil
}

// UpdateProduct replaces the writable fields. Stock only changes through
// AdjustStock so the ledger stays complete; in.Stock is ignored.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	in.normalize()
	v := in.Validate()
	delete(v, "stock")
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err)
		}
		if err := s.checkRefs(tx, in, v); err != nil {
			return err
		}
		if err := invalid(v); err != nil {
			return err
		}
		taken, err := s.skuTaken(tx, in.SKU, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSKU
		}
		p.SKU = in.SKU
		p.Name = in.Name
		p.Description = in.Description
		p.CategoryID = in.CategoryID
		p.SupplierID = in.SupplierID
		p.CostPrice = in.CostPrice
		p.RetailPrice = *in.RetailPrice
		if in.WholesalePrice != nil {
			p.WholesalePrice = *in.WholesalePrice
		}
		p.ReorderLevel = in.ReorderLevel
		p.Unit = in.Unit
		if in.Active != nil {
			p.Active = *in.Active
		}
		return tx.Model(&p).
			Select("SKU", "Name", "Description", "CategoryID", "SupplierID", "CostPrice", "RetailPrice", "WholesalePrice", "ReorderLevel", "Unit", "Active").
			Updates(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Preload("Supplier").First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProducts returns one page of products and the total match count.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.LowStock {
		q = q.Where("stock <= reorder_level")
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Page.Limit
	if limit <= 0 {
		limit = 50
	}
	var out []models.Product
	err := q.Preload("Category").Order("name ASC, id ASC").Limit(limit).Offset(f.Page.Offset).Find(&out).Error
	return out, total, err
}

// DeleteProduct soft-deletes the product; order history keeps its snapshot.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies delta to the product's stock and records the
// movement. A result below zero fails with a *StockError.
func (s *CatalogService) AdjustStock(ctx context.Context, userID, productID uint, delta int, reason models.StockReason, reference string) (*models.Product, error) {
	v := validation.Violations{}
	if delta == 0 {
		v["delta"] = "must_not_be_zero"
	}
	validation.OneOf("reason", string(reason), models.StockReasons, v)
	validation.Required("reason", string(reason), v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, productID).Error; err != nil {
			return notFound(err)
		}
		if err := moveStock(tx, &p, delta); err != nil {
			return err
		}
		return tx.Create(&models.StockMovement{ProductID: p.ID, Delta: delta, Reason: reason, Reference: reference, UserID: userID}).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("stock adjusted",
		zap.Uint("product_id", p.ID), zap.Int("delta", delta), zap.String("reason", string(reason)), zap.Int("stock", p.Stock))
	return &p, nil
}

// moveStock changes p's stock by delta with a conditional update so two
// concurrent sales can never take the same unit. p.Stock is refreshed.
func moveStock(tx *gorm.DB, p *models.Product, delta int) error {
	q := tx.Model(&models.Product{}).Where("id = ?", p.ID)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Product
		if err := tx.Select("id", "stock").First(&current, p.ID).Error; err != nil {
			return notFound(err)
		}
		return &StockError{ProductID: p.ID, Requested: -delta, Available: current.Stock}
	}
	return tx.Select("stock").First(p, p.ID).Error
}

// LowStock lists active products at or below their reorder level, most
// urgent first.
func (s *CatalogService) LowStock(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.Product
	err := s.db.WithContext(ctx).
		Where("active = ? AND stock <= reorder_level", true).
		Order("stock - reorder_level ASC, name ASC").
		Limit(limit).Find(&out).Error
	return out, err
}

// StockMovements returns the most recent ledger entries for a product.
func (s *CatalogService) StockMovements(ctx context.Context, productID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.StockMovement
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// ProductsByID loads the given products keyed by id. Missing ids are absent
// from the map.
func (s *CatalogService) ProductsByID(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	return productsByID(s.db.WithContext(ctx), ids)
}

func productsByID(tx *gorm.DB, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Product
	if err := tx.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// productError builds the not-found error for a product id.
func productError(id uint) error {
	return fmt.Errorf("product %d: %w", id, ErrNotFound)
}
