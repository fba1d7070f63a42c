package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-stockpos/internal/cart"
	"github.com/diewo77/go-stockpos/internal/models"
)

func TestInvoiceNumbersAreSequentialPerYear(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewInvoiceService(gdb)
	client := seedClient(t, gdb, "Acme")
	ctx := context.Background()

	create := func(issue time.Time) string {
		t.Helper()
		inv, err := svc.Create(ctx, 1, InvoiceInput{
			ClientID:  client.ID,
			IssueDate: issue,
			Items:     []InvoiceItemInput{{Description: "Consulting", Quantity: 1, UnitPrice: decPtr("100")}},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return inv.Number
	}
	if got := create(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)); got != "INV-2026-0001" {
		t.Fatalf("first = %s", got)
	}
	if got := create(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)); got != "INV-2026-0002" {
		t.Fatalf("second = %s", got)
	}
	if got := create(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); got != "INV-2027-0001" {
		t.Fatalf("new year = %s", got)
	}
	next, err := svc.NextNumber(ctx, 2026)
	if err != nil || next != "INV-2026-0003" {
		t.Fatalf("next = %s, %v", next, err)
	}
}

func TestInvoiceNumbersPastFourDigits(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewInvoiceService(gdb)
	client := seedClient(t, gdb, "Busy Year")
	ctx := context.Background()
	issue := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	seed := func(number string) {
		t.Helper()
		inv := models.Invoice{
			Number: number, UserID: 1, ClientID: client.ID,
			IssueDate: issue, DueDate: issue, Status: models.InvoiceDraft,
		}
		if err := gdb.Create(&inv).Error; err != nil {
			t.Fatalf("seed %s: %v", number, err)
		}
	}
	seed("INV-2026-9999")
	next, err := svc.NextNumber(ctx, 2026)
	if err != nil || next != "INV-2026-10000" {
		t.Fatalf("next = %s, %v", next, err)
	}
	seed(next)
	next, err = svc.NextNumber(ctx, 2026)
	if err != nil || next != "INV-2026-10001" {
		t.Fatalf("after 10000 next = %s, %v", next, err)
	}
}

func TestInvoiceCreateTotalsAndDefaults(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewInvoiceService(gdb)
	svc.now = fixedClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	client := seedClient(t, gdb, "Acme")
	p := seedProduct(t, gdb, "INV", "12.50", "10", 3)

	inv, err := svc.Create(context.Background(), 1, InvoiceInput{
		ClientID:   client.ID,
		TaxEnabled: true,
		Discount:   dec("5"),
		Items: []InvoiceItemInput{
			{ProductID: &p.ID, Quantity: 2},
			{Description: "Delivery", Quantity: 1, UnitPrice: decPtr("10")},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 25 + 10 = 35, tax 6.30, total 36.30
	if !inv.Subtotal.Equal(dec("35")) || !inv.Tax.Equal(dec("6.30")) || !inv.Total.Equal(dec("36.30")) {
		t.Fatalf("totals = %s %s %s", inv.Subtotal, inv.Tax, inv.Total)
	}
	if inv.Items[0].Description != p.Name || inv.Items[1].Position != 2 {
		t.Fatalf("items = %+v", inv.Items)
	}
	if want := svc.now().AddDate(0, 0, 30); !inv.DueDate.Equal(want) {
		t.Fatalf("due = %s, want %s", inv.DueDate, want)
	}
	if inv.Status != models.InvoiceDraft {
		t.Fatalf("status = %s", inv.Status)
	}
	if got := stockOf(t, gdb, p.ID); got != 3 {
		t.Fatalf("invoicing must not move stock, got %d", got)
	}
}

func TestInvoiceCreateValidation(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewInvoiceService(gdb)
	missing := uint(77)
	_, err := svc.Create(context.Background(), 1, InvoiceInput{
		ClientID: 42,
		Discount: dec("-1"),
		Items:    []InvoiceItemInput{{ProductID: &missing, Quantity: 1}, {Quantity: 0}},
	})
	v, ok := IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"client_id", "discount", "items[0].product_id", "items[1].description", "items[1].quantity"} {
		if _, ok := v[field]; !ok {
			t.Errorf("missing %s in %v", field, v)
		}
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewInvoiceService(gdb)
	client := seedClient(t, gdb, "Acme")
	ctx := context.Background()
	inv, err := svc.Create(ctx, 1, InvoiceInput{ClientID: client.ID, Items: []InvoiceItemInput{{Description: "Work", Quantity: 2, UnitPrice: decPtr("50")}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.MarkPaid(ctx, inv.ID, cart.Card); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("paying a draft: %v", err)
	}
	if _, err := svc.Finalize(ctx, inv.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := svc.Finalize(ctx, inv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second finalize: %v", err)
	}
	paid, err := svc.MarkPaid(ctx, inv.ID, cart.BankTransfer)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.Status != models.InvoicePaid || paid.PaidAt == nil {
		t.Fatalf("invoice = %+v", paid)
	}
	if _, err := svc.Cancel(ctx, inv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel paid: %v", err)
	}
	rev, err := svc.Revenue(ctx, time.Time{}, time.Time{}, false)
	if err != nil || !rev.Equal(dec("100")) {
		t.Fatalf("revenue = %s, %v", rev, err)
	}

	other, _ := svc.Create(ctx, 1, InvoiceInput{ClientID: client.ID, Items: []InvoiceItemInput{{Description: "x", Quantity: 1, UnitPrice: decPtr("1")}}})
	cancelled, err := svc.Cancel(ctx, other.ID)
	if err != nil || cancelled.Status != models.InvoiceCancelled {
		t.Fatalf("cancel draft: %+v, %v", cancelled, err)
	}
	if _, err := svc.Finalize(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateInvoiceFromOrder(t *testing.T) {
	gdb := setupTestDB(t)
	orders := NewOrderService(gdb)
	svc := NewInvoiceService(gdb)
	client := seedClient(t, gdb, "Walk-in Corp")
	p := seedProduct(t, gdb, "FO", "10", "8", 5)
	ctx := context.Background()

	order, err := orders.CheckoutFromItems(ctx, 1, CheckoutInput{Items: []CheckoutItem{{ProductID: p.ID, Quantity: 2}}, TaxEnabled: true})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	inv, err := svc.CreateFromOrder(ctx, 1, order.ID, client.ID)
	if err != nil {
		t.Fatalf("from order: %v", err)
	}
	if !inv.Total.Equal(order.Total) || inv.Status != models.InvoicePaid || inv.OrderID == nil {
		t.Fatalf("invoice = %+v", inv)
	}
	if _, err := svc.CreateFromOrder(ctx, 1, order.ID, client.ID); !errors.Is(err, ErrAlreadyInvoiced) {
		t.Fatalf("expected ErrAlreadyInvoiced, got %v", err)
	}
	rev, _ := svc.Revenue(ctx, time.Time{}, time.Time{}, false)
	if !rev.IsZero() {
		t.Fatalf("order invoices must not add revenue twice, got %s", rev)
	}
}

func TestQuoteConvertKeepsLinesAndTotals(t *testing.T) {
	gdb := setupTestDB(t)
	invoices := NewInvoiceService(gdb)
	svc := NewQuoteService(gdb, invoices)
	client := seedClient(t, gdb, "Acme")
	a := seedProduct(t, gdb, "QA", "10", "7", 0)
	b := seedProduct(t, gdb, "QB", "4", "3", 0)
	ctx := context.Background()

	q, err := svc.Create(ctx, 1, QuoteInput{
		ClientID:   client.ID,
		Basis:      cart.Wholesale,
		TaxEnabled: true,
		Discount:   dec("2"),
		Items: []QuoteItemInput{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: b.ID, Quantity: 5, Basis: cart.Retail, Description: "Boxed"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 3 x 7 + 5 x 4 = 41, tax 7.38, total 46.38
	if !q.Subtotal.Equal(dec("41")) || !q.Tax.Equal(dec("7.38")) || !q.Total.Equal(dec("46.38")) {
		t.Fatalf("totals = %s %s %s", q.Subtotal, q.Tax, q.Total)
	}
	if q.Items[1].Description != "Boxed" || q.Items[1].Basis != string(cart.Retail) {
		t.Fatalf("items = %+v", q.Items)
	}

	if _, err := svc.Convert(ctx, q.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("convert draft: %v", err)
	}
	if _, err := svc.SetStatus(ctx, q.ID, models.QuoteAccepted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("draft -> accepted: %v", err)
	}
	for _, st := range []models.QuoteStatus{models.QuoteSent, models.QuoteAccepted} {
		if _, err := svc.SetStatus(ctx, q.ID, st); err != nil {
			t.Fatalf("set %s: %v", st, err)
		}
	}
	inv, err := svc.Convert(ctx, q.ID, 1)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !inv.Total.Equal(q.Total) || !inv.Subtotal.Equal(q.Subtotal) || len(inv.Items) != 2 {
		t.Fatalf("invoice = %+v", inv)
	}
	if inv.Items[0].Quantity != 3 || !inv.Items[0].UnitPrice.Equal(dec("7")) {
		t.Fatalf("first item = %+v", inv.Items[0])
	}
	got, _ := svc.Get(ctx, q.ID)
	if got.Status != models.QuoteConverted || got.ConvertedInvoiceID == nil || *got.ConvertedInvoiceID != inv.ID {
		t.Fatalf("quote = %+v", got)
	}
	if _, err := svc.Convert(ctx, q.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second convert: %v", err)
	}
	if q.Number != "QUO-"+q.IssueDate.Format("2006")+"-0001" {
		t.Fatalf("quote number = %s", q.Number)
	}
}
