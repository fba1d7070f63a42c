package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/models"
)

// SalesPoint is one day of completed sales.
type SalesPoint struct {
	Date     string          `json:"date"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
}

// ProductSales is the sold volume of one product.
type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Summary is the profit and loss view of a period. Cost of goods only
// covers till orders; invoice lines carry no cost. Discounts is what was
// actually deducted, which is less than the granted discount when a total
// clamped at zero.
type Summary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Orders         int             `json:"orders"`
	OrderRevenue   decimal.Decimal `json:"order_revenue"`
	InvoiceRevenue decimal.Decimal `json:"invoice_revenue"`
	Revenue        decimal.Decimal `json:"revenue"`
	TaxCollected   decimal.Decimal `json:"tax_collected"`
	Discounts      decimal.Decimal `json:"discounts"`
	NetSales       decimal.Decimal `json:"net_sales"`
	CostOfGoods    decimal.Decimal `json:"cost_of_goods"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	Expenses       decimal.Decimal `json:"expenses"`
	NetProfit      decimal.Decimal `json:"net_profit"`
}

type Dashboard struct {
	Products     int64            `json:"products"`
	Clients      int64            `json:"clients"`
	Orders       int64            `json:"orders"`
	Invoices     int64            `json:"invoices"`
	OpenInvoices int64            `json:"open_invoices"`
	TodayOrders  int              `json:"today_orders"`
	TodaySales   decimal.Decimal  `json:"today_sales"`
	LowStock     []models.Product `json:"low_stock"`
	RecentOrders []models.Order   `json:"recent_orders"`
}

// ReportService aggregates in Go over plain row scans, which keeps the
// queries portable between postgres and sqlite.
type ReportService struct {
	db       *gorm.DB
	catalog  *CatalogService
	expenses *ExpenseService
	loc      *time.Location
	now      func() time.Time
}

func NewReportService(db *gorm.DB, catalog *CatalogService, expenses *ExpenseService) *ReportService {
	return &ReportService{db: db, catalog: catalog, expenses: expenses, loc: time.Local, now: time.Now}
}

func (s *ReportService) completedOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Where("status = ?", models.OrderCompleted)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	var out []models.Order
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *ReportService) soldItems(ctx context.Context, from, to time.Time) ([]models.OrderItem, error) {
	q := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.*").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", models.OrderCompleted)
	if !from.IsZero() {
		q = q.Where("orders.created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("orders.created_at < ?", to)
	}
	var out []models.OrderItem
	err := q.Find(&out).Error
	return out, err
}

// SalesSeries returns one point per day in [from, to). Days without sales
// are included when both bounds are set.
func (s *ReportService) SalesSeries(ctx context.Context, from, to time.Time) ([]SalesPoint, error) {
	orders, err := s.completedOrders(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*SalesPoint{}
	var days []string
	add := func(day string) *SalesPoint {
		p, ok := byDay[day]
		if !ok {
			p = &SalesPoint{Date: day, Revenue: decimal.Zero, Tax: decimal.Zero, Discount: decimal.Zero}
			byDay[day] = p
			days = append(days, day)
		}
		return p
	}
	if !from.IsZero() && !to.IsZero() && to.Sub(from) <= 366*24*time.Hour {
		for d := from.In(s.loc); d.Before(to); d = d.AddDate(0, 0, 1) {
			add(d.Format(time.DateOnly))
		}
	}
	for _, o := range orders {
		p := add(o.CreatedAt.In(s.loc).Format(time.DateOnly))
		p.Orders++
		p.Revenue = p.Revenue.Add(o.Total)
		p.Tax = p.Tax.Add(o.Tax)
		p.Discount = p.Discount.Add(o.Discount)
	}
	sort.Strings(days)
	out := make([]SalesPoint, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out, nil
}

// TopProducts ranks products by units sold, then revenue.
func (s *ReportService) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	items, err := s.soldItems(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byID := map[uint]*ProductSales{}
	for _, it := range items {
		ps, ok := byID[it.ProductID]
		if !ok {
			ps = &ProductSales{ProductID: it.ProductID, Name: it.Name, SKU: it.SKU, Revenue: decimal.Zero}
			byID[it.ProductID] = ps
		}
		ps.Quantity += it.Quantity
		ps.Revenue = ps.Revenue.Add(it.LineTotal)
	}
	out := make([]ProductSales, 0, len(byID))
	for _, ps := range byID {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	sum := &Summary{
		From: from, To: to,
		OrderRevenue: decimal.Zero, InvoiceRevenue: decimal.Zero, TaxCollected: decimal.Zero,
		Discounts: decimal.Zero, CostOfGoods: decimal.Zero,
	}
	orders, err := s.completedOrders(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		sum.Orders++
		sum.OrderRevenue = sum.OrderRevenue.Add(o.Total)
		sum.TaxCollected = sum.TaxCollected.Add(o.Tax)
		sum.Discounts = sum.Discounts.Add(appliedDiscount(o.Subtotal, o.Tax, o.Total))
	}
	items, err := s.soldItems(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		sum.CostOfGoods = sum.CostOfGoods.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	q := s.db.WithContext(ctx).Where("status = ? AND order_id IS NULL", models.InvoicePaid)
	if !from.IsZero() {
		q = q.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("paid_at < ?", to)
	}
	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		sum.InvoiceRevenue = sum.InvoiceRevenue.Add(inv.Total)
		sum.TaxCollected = sum.TaxCollected.Add(inv.Tax)
		sum.Discounts = sum.Discounts.Add(appliedDiscount(inv.Subtotal, inv.Tax, inv.Total))
	}

	if sum.Expenses, err = s.expenses.Total(ctx, from, to); err != nil {
		return nil, err
	}
	sum.Revenue = sum.OrderRevenue.Add(sum.InvoiceRevenue)
	sum.NetSales = sum.Revenue.Sub(sum.TaxCollected)
	sum.GrossProfit = sum.NetSales.Sub(sum.CostOfGoods)
	sum.NetProfit = sum.GrossProfit.Sub(sum.Expenses)
	return sum, nil
}

func appliedDiscount(subtotal, tax, total decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Sub(total)
}

// Dashboard is the landing page snapshot.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := &Dashboard{TodaySales: decimal.Zero}
	counts := []struct {
		model any
		dst   *int64
		where []any
	}{
		{&models.Product{}, &d.Products, []any{"active = ?", true}},
		{&models.Client{}, &d.Clients, nil},
		{&models.Order{}, &d.Orders, []any{"status = ?", models.OrderCompleted}},
		{&models.Invoice{}, &d.Invoices, nil},
		{&models.Invoice{}, &d.OpenInvoices, []any{"status = ?", models.InvoiceFinal}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	today, err := s.completedOrders(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	for _, o := range today {
		d.TodayOrders++
		d.TodaySales = d.TodaySales.Add(o.Total)
	}
	if d.LowStock, err = s.catalog.LowStock(ctx, 10); err != nil {
		return nil, err
	}
	if err := db.Order("created_at DESC, id DESC").Limit(10).Find(&d.RecentOrders).Error; err != nil {
		return nil, err
	}
	return d, nil
}
