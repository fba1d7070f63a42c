package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/handlers"
	"github.com/diewo77/go-stockpos/internal/models"
	"github.com/diewo77/go-stockpos/internal/pos"
	"github.com/diewo77/go-stockpos/internal/services"
)

// RouterConfig holds the authorization gate, the services and the handlers
// the HTTP routes are built from.
type RouterConfig struct {
	AuthGate *AuthGate
	Register *pos.Register

	Users    *services.UserService
	Catalog  *services.CatalogService
	Orders   *services.OrderService
	Invoices *services.InvoiceService
	Quotes   *services.QuoteService
	Expenses *services.ExpenseService
	Reports  *services.ReportService
	Company  *services.CompanyService

	AuthHandler     *handlers.AuthHandler
	AdminHandler    *handlers.AdminHandler
	ProductHandler  *handlers.ProductHandler
	CategoryHandler *handlers.EntityHandler[models.Category, handlers.CategoryInput]
	SupplierHandler *handlers.EntityHandler[models.Supplier, handlers.SupplierInput]
	ClientHandler   *handlers.EntityHandler[models.Client, handlers.ClientInput]
	POSHandler      *handlers.POSHandler
	OrderHandler    *handlers.OrderHandler
	InvoiceHandler  *handlers.InvoiceHandler
	QuoteHandler    *handlers.QuoteHandler
	ExpenseHandler  *handlers.ExpenseHandler
	ReportHandler   *handlers.ReportHandler
	CompanyHandler  *handlers.CompanyHandler
}

// NewRouterConfig wires everything over db. Orders carry an ownership
// policy: cashiers only see the orders they rang up.
func NewRouterConfig(db *gorm.DB, cacheTTL time.Duration) *RouterConfig {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	authGate := NewAuthGate(db, cacheTTL)
	authGate.RegisterOwnership("order")

	cfg := &RouterConfig{
		AuthGate: authGate,
		Register: pos.NewRegister(),
		Users:    services.NewUserService(db),
		Catalog:  services.NewCatalogService(db),
		Orders:   services.NewOrderService(db),
		Invoices: services.NewInvoiceService(db),
		Expenses: services.NewExpenseService(db),
		Company:  services.NewCompanyService(db),
	}
	cfg.Quotes = services.NewQuoteService(db, cfg.Invoices)
	cfg.Reports = services.NewReportService(db, cfg.Catalog, cfg.Expenses)

	cfg.AuthHandler = handlers.NewAuthHandler(cfg.Users, authGate, cfg.Register)
	cfg.AdminHandler = handlers.NewAdminHandler(cfg.Users, authGate, cfg.Register)
	cfg.ProductHandler = handlers.NewProductHandler(cfg.Catalog)
	cfg.CategoryHandler = handlers.NewCategoryHandler(db)
	cfg.SupplierHandler = handlers.NewSupplierHandler(db)
	cfg.ClientHandler = handlers.NewClientHandler(db)
	cfg.POSHandler = handlers.NewPOSHandler(cfg.Register, cfg.Catalog, cfg.Orders)
	cfg.OrderHandler = handlers.NewOrderHandler(cfg.Orders, cfg.Company, authGate)
	cfg.InvoiceHandler = handlers.NewInvoiceHandler(cfg.Invoices, cfg.Company)
	cfg.QuoteHandler = handlers.NewQuoteHandler(cfg.Quotes, cfg.Company)
	cfg.ExpenseHandler = handlers.NewExpenseHandler(cfg.Expenses)
	cfg.ReportHandler = handlers.NewReportHandler(cfg.Reports, cfg.Expenses)
	cfg.CompanyHandler = handlers.NewCompanyHandler(cfg.Company)
	return cfg
}
