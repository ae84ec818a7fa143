package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger/csvstore"
	"fintrack/internal/services"
)

func newTestServer(t *testing.T) (*Server, *csvstore.Store) {
	t.Helper()
	store, err := csvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := services.NewLedgerService(store, nil)
	s, err := NewServer(":0", store, svc, config.DefaultTaxonomy())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, store
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func TestCreateTransaction(t *testing.T) {
	s, store := newTestServer(t)

	w := postForm(s, "/transactions", url.Values{
		"date":     {"2026-08-03"},
		"amount":   {"-42.50"},
		"category": {"Food"},
		"note":     {"groceries"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"transaction:created"`, `"form:reset"`, `"dashboard:refresh"`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}

	txs, err := store.ReadTransactions(context.Background())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount.Cents != -4250 {
		t.Errorf("ledger = %+v", txs)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, store := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{
			name: "bad amount",
			form: url.Values{"date": {"2026-08-03"}, "amount": {"abc"}, "category": {"Food"}},
		},
		{
			name: "bad date",
			form: url.Values{"date": {"03/08/2026"}, "amount": {"10"}, "category": {"Food"}},
		},
		{
			name: "missing category",
			form: url.Values{"date": {"2026-08-03"}, "amount": {"10"}, "category": {""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(s, "/transactions", tt.form)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", w.Code)
			}
			if !strings.Contains(w.Body.String(), `class="error"`) {
				t.Errorf("body should carry an inline error div: %s", w.Body.String())
			}
		})
	}

	txs, err := store.ReadTransactions(context.Background())
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("rejected submissions must not reach the ledger, got %d rows", len(txs))
	}
}

func TestCreateTransactionRequiresPOST(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(s, "/transactions")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if w.Header().Get("Allow") != "POST" {
		t.Errorf("Allow = %q, want POST", w.Header().Get("Allow"))
	}
}

func TestDashboardPartial(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Date: core.NewDate(2026, 8, 1), Amount: core.Money{Cents: 200000}, Category: "Income", Note: "salary"},
		{Date: core.NewDate(2026, 8, 3), Amount: core.Money{Cents: -4250}, Category: "Food", Note: "groceries"},
	} {
		if _, err := store.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}

	w := get(s, "/ui/dashboard?year=2026&month=8")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{"$2,000.00", "$42.50", "$1,957.50", "Food", "groceries"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardCacheInvalidatedOnCreate(t *testing.T) {
	s, _ := newTestServer(t)

	// Warm the cache with the empty month.
	if w := get(s, "/ui/dashboard?year=2026&month=8"); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w := postForm(s, "/transactions", url.Values{
		"date":     {"2026-08-03"},
		"amount":   {"-10.00"},
		"category": {"Food"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d", w.Code)
	}

	w2 := get(s, "/ui/dashboard?year=2026&month=8")
	if !strings.Contains(w2.Body.String(), "$10.00") {
		t.Error("dashboard should reflect the new transaction immediately")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	s, store := newTestServer(t)

	w := postForm(s, "/subscriptions", url.Values{
		"name":             {"Streaming"},
		"amount":           {"9.99"},
		"cadence":          {"monthly"},
		"next_charge_date": {"2026-09-01"},
		"category":         {"Entertainment"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	list := get(s, "/ui/subscriptions")
	if !strings.Contains(list.Body.String(), "Streaming") {
		t.Error("subscription list missing new entry")
	}

	subs, err := store.ListSubscriptions(context.Background())
	if err != nil || len(subs) != 1 {
		t.Fatalf("subs = %v, err = %v", subs, err)
	}

	del := postForm(s, "/subscriptions/delete", url.Values{"id": {"1"}})
	if del.Code != http.StatusOK {
		t.Fatalf("delete status = %d", del.Code)
	}
	subs, _ = store.ListSubscriptions(context.Background())
	if len(subs) != 0 {
		t.Errorf("subscription not deleted: %v", subs)
	}
}

func TestEditSubscription(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	sub, err := store.AddSubscription(ctx, core.Subscription{
		Name:           "Streaming",
		Amount:         core.Money{Cents: 999},
		Cadence:        core.Monthly,
		NextChargeDate: core.NewDate(2026, 9, 1),
		Category:       "Entertainment",
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	w := postForm(s, "/subscriptions/edit", url.Values{
		"id":               {"1"},
		"name":             {"Streaming Plus"},
		"amount":           {"14.99"},
		"cadence":          {"monthly"},
		"next_charge_date": {"2026-10-01"},
		"category":         {"Entertainment"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"subscriptions:changed"`) {
		t.Errorf("HX-Trigger = %s", w.Header().Get("HX-Trigger"))
	}

	subs, err := store.ListSubscriptions(ctx)
	if err != nil || len(subs) != 1 {
		t.Fatalf("subs = %v, err = %v", subs, err)
	}
	got := subs[0]
	if got.ID != sub.ID || got.Name != "Streaming Plus" || got.Amount.Cents != 1499 {
		t.Errorf("after edit: %+v", got)
	}
	if got.NextChargeDate.String() != "2026-10-01" {
		t.Errorf("next charge date = %q", got.NextChargeDate.String())
	}
}

func TestEditSubscriptionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := postForm(s, "/subscriptions/edit", url.Values{
		"id":               {"99"},
		"name":             {"Ghost"},
		"amount":           {"1.00"},
		"cadence":          {"monthly"},
		"next_charge_date": {"2026-10-01"},
		"category":         {"Other"},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEditCard(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	if _, err := store.AddCard(ctx, core.Card{
		Name:    "Visa",
		Limit:   core.Money{Cents: 500000},
		Balance: core.Money{Cents: 120000},
	}); err != nil {
		t.Fatalf("seed card: %v", err)
	}

	w := postForm(s, "/cards/edit", url.Values{
		"id":      {"1"},
		"name":    {"Visa Gold"},
		"limit":   {"8000"},
		"balance": {"1500.50"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body = %s", w.Code, w.Body.String())
	}

	cards, err := store.ListCards(ctx)
	if err != nil || len(cards) != 1 {
		t.Fatalf("cards = %v, err = %v", cards, err)
	}
	got := cards[0]
	if got.Name != "Visa Gold" || got.Limit.Cents != 800000 || got.Balance.Cents != 150050 {
		t.Errorf("after edit: %+v", got)
	}
}

func TestEditGoal(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	if _, err := store.AddGoal(ctx, core.Goal{
		Name:         "Emergency fund",
		TargetAmount: core.Money{Cents: 1000000},
		TargetDate:   core.NewDate(2027, 1, 1),
		CurrentSaved: core.Money{Cents: 250000},
	}); err != nil {
		t.Fatalf("seed goal: %v", err)
	}

	w := postForm(s, "/goals/edit", url.Values{
		"id":            {"1"},
		"name":          {"Emergency fund"},
		"target_amount": {"12000"},
		"target_date":   {"2027-06-01"},
		"current_saved": {"3000"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("edit status = %d, body = %s", w.Code, w.Body.String())
	}

	goals, err := store.ListGoals(ctx)
	if err != nil || len(goals) != 1 {
		t.Fatalf("goals = %v, err = %v", goals, err)
	}
	got := goals[0]
	if got.TargetAmount.Cents != 1200000 || got.CurrentSaved.Cents != 300000 {
		t.Errorf("after edit: %+v", got)
	}
	if got.TargetDate.String() != "2027-06-01" {
		t.Errorf("target date = %q", got.TargetDate.String())
	}
}

func TestEditValidation(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	if _, err := store.AddCard(ctx, core.Card{
		Name:  "Visa",
		Limit: core.Money{Cents: 500000},
	}); err != nil {
		t.Fatalf("seed card: %v", err)
	}

	tests := []struct {
		name string
		path string
		form url.Values
		want int
	}{
		{
			name: "missing id",
			path: "/cards/edit",
			form: url.Values{"name": {"Visa"}, "limit": {"5000"}},
			want: http.StatusBadRequest,
		},
		{
			name: "bad limit",
			path: "/cards/edit",
			form: url.Values{"id": {"1"}, "name": {"Visa"}, "limit": {"abc"}},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad next charge date",
			path: "/subscriptions/edit",
			form: url.Values{"id": {"1"}, "name": {"X"}, "amount": {"1"}, "cadence": {"monthly"}, "next_charge_date": {"tomorrow"}, "category": {"Other"}},
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(s, tt.path, tt.form)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	cards, err := store.ListCards(ctx)
	if err != nil || len(cards) != 1 || cards[0].Limit.Cents != 500000 {
		t.Errorf("rejected edits must not change the store: %+v, err = %v", cards, err)
	}
}

func TestCardPaymentClampsAndBooks(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	card, err := store.AddCard(ctx, core.Card{
		Name:    "Visa",
		Limit:   core.Money{Cents: 500000},
		Balance: core.Money{Cents: 3000},
	})
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}

	// Paying more than the balance clamps it to zero.
	w := postForm(s, "/cards/pay", url.Values{"id": {"1"}, "amount": {"50.00"}})
	if w.Code != http.StatusOK {
		t.Fatalf("pay status = %d, body = %s", w.Code, w.Body.String())
	}

	cards, err := store.ListCards(ctx)
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if cards[0].Balance.Cents != 0 {
		t.Errorf("balance = %d, want 0", cards[0].Balance.Cents)
	}

	txs, err := store.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("payment should book one ledger row, got %d", len(txs))
	}
	if txs[0].Amount.Cents != -5000 || txs[0].Category != "Bills" {
		t.Errorf("payment row = %+v", txs[0])
	}
	if !strings.Contains(txs[0].Note, "[ccpay:"+card.Name) {
		t.Errorf("payment note missing marker: %q", txs[0].Note)
	}
}

func TestBudgetUpsertRejectsIncome(t *testing.T) {
	s, _ := newTestServer(t)

	w := postForm(s, "/budgets", url.Values{"category": {"Income"}, "monthly_budget": {"100"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}

	w = postForm(s, "/budgets", url.Values{"category": {"Food"}, "monthly_budget": {"300"}})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestExportTransactionsCSV(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	if _, err := store.AppendTransaction(ctx, core.Transaction{
		Date:     core.NewDate(2026, 8, 3),
		Amount:   core.Money{Cents: -4250},
		Category: "Food",
		Note:     "groceries",
	}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	w := get(s, "/export/transactions.csv")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "id,date,amount,category,note") {
		t.Errorf("missing header row: %s", body)
	}
	if !strings.Contains(body, "1,2026-08-03,-42.50,Food,groceries") {
		t.Errorf("missing data row: %s", body)
	}
}

func TestExportUnknownTable(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(s, "/export/passwords.csv")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if w := get(s, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", w.Code)
	}
	if w := get(s, "/readyz"); w.Code != http.StatusOK {
		t.Errorf("/readyz status = %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(s, "/ui/dashboard")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
}

func TestFormatDollars(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "$0.00"},
		{cents: 1234, want: "$12.34"},
		{cents: -4250, want: "-$42.50"},
		{cents: 200000, want: "$2,000.00"},
		{cents: 123456789, want: "$1,234,567.89"},
		{cents: 5, want: "$0.05"},
	}

	for _, tt := range tests {
		if got := formatDollars(tt.cents); got != tt.want {
			t.Errorf("formatDollars(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
