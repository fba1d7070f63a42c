package main

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/gate"
	"github.com/diewo77/go-stockpos/httpx"
	"github.com/diewo77/go-stockpos/internal/db"
	"github.com/diewo77/go-stockpos/internal/idempotency"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/policy"
)

// App is the root HTTP handler.
type App struct {
	mux         *http.ServeMux
	handler     http.Handler
	db          *gorm.DB
	routerCfg   *policy.RouterConfig
	idempotency func(http.Handler) http.Handler
}

// NewApp wires every route. Checkout endpoints share one idempotency store.
func NewApp(gdb *gorm.DB, routerCfg *policy.RouterConfig, logger *zap.Logger, idemOpts ...idempotency.Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := append([]idempotency.Option{idempotency.WithLogger(logging.NewPrintfAdapter(logger))}, idemOpts...)
	app := &App{
		mux:         http.NewServeMux(),
		db:          gdb,
		routerCfg:   routerCfg,
		idempotency: idempotency.Middleware(idempotency.NewGormStore(gdb), opts...),
	}
	app.setupRoutes()
	app.handler = auth.Middleware(logging.Middleware(logger)(logging.Recover(app.mux)))
	return app
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// public
	ah := a.routerCfg.AuthHandler
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.HandleFunc("POST /auth/signup", ah.Signup)
	a.mux.HandleFunc("POST /auth/login", ah.Login)
	a.mux.HandleFunc("POST /auth/logout", ah.Logout)

	// any signed-in user
	a.mux.Handle("GET /auth/me", a.requireAuth(http.HandlerFunc(ah.Me)))
	a.mux.Handle("GET /dashboard", a.requireAuth(http.HandlerFunc(a.routerCfg.ReportHandler.Dashboard)))

	ph := a.routerCfg.ProductHandler
	a.route("GET /products", "product", gate.ActionList, ph.List)
	a.route("POST /products", "product", gate.ActionCreate, ph.Create)
	a.route("GET /products/low-stock", "product", gate.ActionList, ph.LowStock)
	a.route("POST /products/margin", "product", gate.ActionView, ph.Margin)
	a.route("GET /products/{id}", "product", gate.ActionView, ph.Get)
	a.route("PUT /products/{id}", "product", gate.ActionUpdate, ph.Update)
	a.route("DELETE /products/{id}", "product", gate.ActionDelete, ph.Delete)
	a.route("POST /products/{id}/stock", "product", "stock", ph.AdjustStock)
	a.route("GET /products/{id}/movements", "product", gate.ActionView, ph.Movements)

	cat := a.routerCfg.CategoryHandler
	a.route("GET /categories", "category", gate.ActionList, cat.List)
	a.route("POST /categories", "category", gate.ActionCreate, cat.Create)
	a.route("GET /categories/{id}", "category", gate.ActionView, cat.Get)
	a.route("PUT /categories/{id}", "category", gate.ActionUpdate, cat.Update)
	a.route("DELETE /categories/{id}", "category", gate.ActionDelete, cat.Delete)

	sup := a.routerCfg.SupplierHandler
	a.route("GET /suppliers", "supplier", gate.ActionList, sup.List)
	a.route("POST /suppliers", "supplier", gate.ActionCreate, sup.Create)
	a.route("GET /suppliers/{id}", "supplier", gate.ActionView, sup.Get)
	a.route("PUT /suppliers/{id}", "supplier", gate.ActionUpdate, sup.Update)
	a.route("DELETE /suppliers/{id}", "supplier", gate.ActionDelete, sup.Delete)

	ch := a.routerCfg.ClientHandler
	a.route("GET /clients", "client", gate.ActionList, ch.List)
	a.route("POST /clients", "client", gate.ActionCreate, ch.Create)
	a.route("GET /clients/{id}", "client", gate.ActionView, ch.Get)
	a.route("PUT /clients/{id}", "client", gate.ActionUpdate, ch.Update)
	a.route("DELETE /clients/{id}", "client", gate.ActionDelete, ch.Delete)

	pos := a.routerCfg.POSHandler
	a.route("GET /pos/cart", "pos", gate.ActionView, pos.Cart)
	a.route("DELETE /pos/cart", "pos", gate.ActionDelete, pos.Clear)
	a.route("POST /pos/cart/lines", "pos", gate.ActionUpdate, pos.AddLine)
	a.route("PATCH /pos/cart/lines/{product_id}", "pos", gate.ActionUpdate, pos.UpdateLine)
	a.route("DELETE /pos/cart/lines/{product_id}", "pos", gate.ActionUpdate, pos.RemoveLine)
	a.route("PUT /pos/cart/adjustments", "pos", gate.ActionUpdate, pos.Adjust)
	a.mux.Handle("POST /pos/checkout", a.requireAuth(a.requirePermission("pos", gate.ActionCreate)(
		a.idempotency(http.HandlerFunc(pos.Checkout)))))

	oh := a.routerCfg.OrderHandler
	a.mux.Handle("POST /orders", a.requireAuth(a.requirePermission("order", gate.ActionCreate)(
		a.idempotency(http.HandlerFunc(oh.Create)))))
	a.route("GET /orders", "order", gate.ActionList, oh.List)
	a.route("GET /orders/{id}", "order", gate.ActionView, oh.Get)
	a.route("POST /orders/{id}/void", "order", "void", oh.Void)
	a.route("GET /orders/{id}/receipt.pdf", "order", gate.ActionView, oh.Receipt)

	ih := a.routerCfg.InvoiceHandler
	a.route("GET /invoices", "invoice", gate.ActionList, ih.List)
	a.route("POST /invoices", "invoice", gate.ActionCreate, ih.Create)
	a.route("GET /invoices/{id}", "invoice", gate.ActionView, ih.Get)
	a.route("POST /orders/{order_id}/invoice", "invoice", gate.ActionCreate, ih.FromOrder)
	a.route("POST /invoices/{id}/finalize", "invoice", "finalize", ih.Finalize)
	a.route("POST /invoices/{id}/pay", "invoice", "pay", ih.Pay)
	a.route("POST /invoices/{id}/cancel", "invoice", gate.ActionUpdate, ih.Cancel)
	a.route("GET /invoices/{id}/pdf", "invoice", gate.ActionView, ih.PDF)

	qh := a.routerCfg.QuoteHandler
	a.route("GET /quotes", "quote", gate.ActionList, qh.List)
	a.route("POST /quotes", "quote", gate.ActionCreate, qh.Create)
	a.route("GET /quotes/{id}", "quote", gate.ActionView, qh.Get)
	a.route("POST /quotes/{id}/status", "quote", gate.ActionUpdate, qh.SetStatus)
	a.route("POST /quotes/{id}/convert", "quote", "convert", qh.Convert)
	a.route("GET /quotes/{id}/pdf", "quote", gate.ActionView, qh.PDF)

	eh := a.routerCfg.ExpenseHandler
	a.route("GET /expenses", "expense", gate.ActionList, eh.List)
	a.route("POST /expenses", "expense", gate.ActionCreate, eh.Create)
	a.route("DELETE /expenses/{id}", "expense", gate.ActionDelete, eh.Delete)
	a.route("GET /expense-categories", "expense_category", gate.ActionList, eh.Categories)
	a.route("POST /expense-categories", "expense_category", gate.ActionCreate, eh.CreateCategory)

	rh := a.routerCfg.ReportHandler
	a.route("GET /reports/sales", "report", gate.ActionView, rh.Sales)
	a.route("GET /reports/top-products", "report", gate.ActionView, rh.TopProducts)
	a.route("GET /reports/expenses", "report", gate.ActionView, rh.Expenses)
	a.route("GET /reports/summary", "report", gate.ActionView, rh.Summary)

	co := a.routerCfg.CompanyHandler
	a.route("GET /settings/company", "company", gate.ActionView, co.Get)
	a.route("PUT /settings/company", "company", gate.ActionUpdate, co.Update)

	adm := a.routerCfg.AdminHandler
	a.mux.Handle("GET /admin/profiles", a.requireAdmin(http.HandlerFunc(adm.Profiles)))
	a.mux.Handle("GET /admin/users", a.requireAdmin(http.HandlerFunc(adm.Users)))
	a.mux.Handle("POST /admin/users/{id}/profile", a.requireAdmin(http.HandlerFunc(adm.AssignProfile)))
	a.mux.Handle("POST /admin/users/{id}/status", a.requireAdmin(http.HandlerFunc(adm.SetStatus)))
}

// route registers a handler behind the session and resource:action checks.
func (a *App) route(pattern, resourceType string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.requirePermission(resourceType, action)(h)))
}

func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequireAdmin()(next))
}

func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", zap.Error(err))
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
