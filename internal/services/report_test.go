package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func expenseCategory(t *testing.T, svc *ExpenseService, name string) uint {
	t.Helper()
	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	for _, c := range cats {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %q not seeded", name)
	return 0
}

func TestExpensesByCategory(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewExpenseService(gdb)
	ctx := context.Background()
	rent := expenseCategory(t, svc, "Rent")
	supplies := expenseCategory(t, svc, "Supplies")
	day := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)

	for _, in := range []ExpenseInput{
		{Date: day, Amount: dec("500"), CategoryID: rent},
		{Date: day, Amount: dec("20.50"), CategoryID: supplies, PaymentMethod: "cash"},
		{Date: day.AddDate(0, 0, 1), Amount: dec("9.50"), CategoryID: supplies},
	} {
		if _, err := svc.Create(ctx, 1, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	rows, err := svc.ByCategory(ctx, day, day.AddDate(0, 1, 0))
	if err != nil || len(rows) != 2 {
		t.Fatalf("by category = %v, %v", rows, err)
	}
	if rows[0].Name != "Rent" || !rows[1].Total.Equal(dec("30")) || rows[1].Count != 2 {
		t.Fatalf("rows = %+v", rows)
	}

	_, err = svc.Create(ctx, 1, ExpenseInput{Amount: dec("0"), CategoryID: 999, PaymentMethod: "cheque"})
	v, ok := IsValidation(err)
	if !ok || v["amount"] == "" || v["category_id"] != "not_found" || v["payment_method"] == "" {
		t.Fatalf("validation = %v, %v", v, err)
	}

	list, total, err := svc.List(ctx, ExpenseFilter{CategoryID: supplies})
	if err != nil || total != 2 {
		t.Fatalf("list = %d, %v", total, err)
	}
	if err := svc.Delete(ctx, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, "rent"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestReportSummaryAndSeries(t *testing.T) {
	gdb := setupTestDB(t)
	catalog := NewCatalogService(gdb)
	expenses := NewExpenseService(gdb)
	orders := NewOrderService(gdb)
	reports := NewReportService(gdb, catalog, expenses)
	ctx := context.Background()

	a := seedProduct(t, gdb, "RA", "10", "8", 20) // cost 5
	b := seedProduct(t, gdb, "RB", "4", "3", 20)  // cost 2

	first, err := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}}})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: b.ID, Quantity: 5}}, TaxEnabled: true, Discount: dec("1")}); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	voided, _ := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: a.ID, Quantity: 9}}})
	if _, err := orders.Void(ctx, voided.ID, 1); err != nil {
		t.Fatalf("void: %v", err)
	}
	if _, err := expenses.Create(ctx, 1, ExpenseInput{Amount: dec("3"), CategoryID: expenseCategory(t, expenses, "Other")}); err != nil {
		t.Fatalf("expense: %v", err)
	}

	from := time.Now().UTC().AddDate(0, 0, -1)
	to := time.Now().UTC().AddDate(0, 0, 1)
	sum, err := reports.Summary(ctx, from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// order 1: 24; order 2: 20 + 3.60 - 1 = 22.60
	if sum.Orders != 2 || !sum.Revenue.Equal(dec("46.60")) || !sum.TaxCollected.Equal(dec("3.60")) {
		t.Fatalf("summary = %+v", sum)
	}
	// cost: 2x5 + 1x2 + 5x2 = 22
	if !sum.CostOfGoods.Equal(dec("22")) || !sum.GrossProfit.Equal(dec("21")) || !sum.NetProfit.Equal(dec("18")) {
		t.Fatalf("profit = cogs %s gross %s net %s", sum.CostOfGoods, sum.GrossProfit, sum.NetProfit)
	}

	series, err := reports.SalesSeries(ctx, from, to)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	orderCount := 0
	for _, p := range series {
		orderCount += p.Orders
	}
	if orderCount != 2 || len(series) < 2 {
		t.Fatalf("series = %+v", series)
	}

	top, err := reports.TopProducts(ctx, from, to, 1)
	if err != nil || len(top) != 1 || top[0].ProductID != b.ID || top[0].Quantity != 6 {
		t.Fatalf("top = %+v, %v", top, err)
	}

	dash, err := reports.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Products != 2 || dash.Orders != 2 || dash.TodayOrders != 2 || len(dash.RecentOrders) != 3 {
		t.Fatalf("dashboard = %+v", dash)
	}
	if dash.RecentOrders[0].ID != voided.ID || first.ID == 0 {
		t.Fatalf("recent orders should be newest first")
	}
}

func TestSummaryCountsAppliedDiscount(t *testing.T) {
	gdb := setupTestDB(t)
	expenses := NewExpenseService(gdb)
	orders := NewOrderService(gdb)
	reports := NewReportService(gdb, NewCatalogService(gdb), expenses)
	ctx := context.Background()
	p := seedProduct(t, gdb, "DS", "10", "8", 10)

	// 10 subtotal, 15 granted: only 10 comes off.
	clamped, err := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: p.ID, Quantity: 1}}, Discount: dec("15")})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !clamped.Total.IsZero() {
		t.Fatalf("total = %s, want 0", clamped.Total)
	}
	if _, err := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: p.ID, Quantity: 2}}, Discount: dec("2.50")}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	sum, err := reports.Summary(ctx, time.Now().UTC().AddDate(0, 0, -1), time.Now().UTC().AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !sum.Discounts.Equal(dec("12.50")) {
		t.Fatalf("discounts = %s, want 12.50", sum.Discounts)
	}
	if !sum.Revenue.Equal(dec("17.50")) {
		t.Fatalf("revenue = %s, want 17.50", sum.Revenue)
	}
}
