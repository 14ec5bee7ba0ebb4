package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tally/internal/kv"
	"tally/internal/kv/memory"
	"tally/internal/repository"
	"tally/internal/services"
	"tally/internal/transfer"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := services.NewTransactionService(store, nil, nil)
	return NewServer(":0", svc, opts...), store
}

func do(t *testing.T, srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func dinnerForm() url.Values {
	return url.Values{
		"date":        {"2025-02-01"},
		"amount":      {"75.5"},
		"description": {"Dinner"},
		"location":    {"Cafe"},
		"type":        {"Debit"},
		"category":    {"Food"},
	}
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Open dashboard") {
		t.Fatalf("index body missing link")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" || !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("missing security or request id headers: %v", rr.Header())
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	if rr := do(t, srv, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestReadinessFailure(t *testing.T) {
	srv, _ := newTestServer(t, WithReadiness(func(context.Context) error { return errors.New("store down") }))
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestReadinessDoesNotSeedStore(t *testing.T) {
	store := memory.New()
	svc := services.NewTransactionService(store, nil, nil)
	srv := NewServer(":0", svc, WithReadiness(svc.Ready))

	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, err := store.Get(context.Background(), repository.DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("readiness wrote to the store: %v", err)
	}

	store.FailGets(errors.New("unavailable"))
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on read failure, got %d", rr.Code)
	}
}

func TestAddRejectsOutOfRangeAmount(t *testing.T) {
	srv, store := newTestServer(t)

	for _, amount := range []string{"1e400", "1e2000000000"} {
		form := dinnerForm()
		form.Set("amount", amount)
		rr := do(t, srv, http.MethodPost, "/add-transaction", form)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", amount, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Please enter a valid amount") {
			t.Fatalf("%s: missing validation alert", amount)
		}
	}
	if _, err := store.Get(context.Background(), repository.DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("nothing should be stored, got %v", err)
	}
}

func TestDashboardShowsSeed(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/dashboard", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Expense Dashboard",
		"Total Balance: $850.00",
		"Total Transactions: 2",
		"Grocery Shopping",
		"-$150.00",
		"+$1000.00",
		"Logout",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardEmptyState(t *testing.T) {
	srv, store := newTestServer(t)
	_ = store.Set(context.Background(), "@transactions", []byte("[]"))

	rr := do(t, srv, http.MethodGet, "/dashboard", nil)
	if !strings.Contains(rr.Body.String(), "No transactions yet") {
		t.Fatal("expected empty state")
	}
}

func TestDashboardStoreFailureStillRenders(t *testing.T) {
	srv, store := newTestServer(t)
	store.FailGets(errors.New("unavailable"))

	rr := do(t, srv, http.MethodGet, "/dashboard", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "No transactions yet") {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestDashboardMalformedNewTransaction(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/dashboard?newTransaction=%7Bbad", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAddTransactionFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/add-transaction", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("form status=%d", rr.Code)
	}
	for _, want := range []string{"Add Transaction", `value="Credit"`, `value="Entertainment"`, "Enter date (e.g., 2025-01-27)"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("form missing %q", want)
		}
	}

	rr = do(t, srv, http.MethodPost, "/add-transaction", dinnerForm())
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil || loc.Path != "/dashboard" {
		t.Fatalf("unexpected location %q", rr.Header().Get("Location"))
	}
	added, err := transfer.Decode(loc.Query().Get(transfer.ParamNewTransaction))
	if err != nil || added.Description != "Dinner" || added.Amount != "75.50" {
		t.Fatalf("newTransaction = %+v err=%v", added, err)
	}

	rr = do(t, srv, http.MethodGet, loc.String(), nil)
	body := rr.Body.String()
	for _, want := range []string{"Total Balance: $774.50", "Total Transactions: 3", "Added Dinner", "-$75.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard after add missing %q", want)
		}
	}
	if strings.Index(body, "Dinner") > strings.Index(body, "Grocery Shopping") {
		t.Error("new transaction should be listed first")
	}
}

func TestAddTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantMsg string
	}{
		{"missing location", "location", "", "Please fill in all fields"},
		{"unknown category", "category", "Pets", "Please fill in all fields"},
		{"zero amount", "amount", "0", "Please enter a valid amount"},
		{"text amount", "amount", "ten", "Please enter a valid amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t)
			form := dinnerForm()
			form.Set(tt.field, tt.value)

			rr := do(t, srv, http.MethodPost, "/add-transaction", form)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.wantMsg) {
				t.Fatalf("body missing %q", tt.wantMsg)
			}
			if !strings.Contains(rr.Body.String(), `value="2025-02-01"`) {
				t.Fatal("entered values should be kept")
			}
			if _, err := store.Get(context.Background(), "@transactions"); err == nil {
				t.Fatal("nothing should be written")
			}
		})
	}
}

func TestAddTransactionSaveFailure(t *testing.T) {
	srv, store := newTestServer(t)
	store.FailSets(errors.New("disk full"))

	rr := do(t, srv, http.MethodPost, "/add-transaction", dinnerForm())
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Failed to save transaction") {
		t.Fatal("expected save failure alert")
	}
}

func TestTransactionDetail(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/transaction-detail", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing param: expected 400, got %d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/transaction-detail?transaction=nope", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed param: expected 400, got %d", rr.Code)
	}

	q := url.Values{transfer.ParamTransaction: {`{"id":"1","date":"2025-01-27","amount":"150.00","description":"Grocery Shopping","location":"Supermarket","type":"Debit","category":"Shopping"}`}}
	rr = do(t, srv, http.MethodGet, "/transaction-detail?"+q.Encode(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	for _, want := range []string{"Transaction Details", "-$150.00", "Supermarket", "Transaction Type", "2025-01-27"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("detail missing %q", want)
		}
	}
}

func TestLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/logout", url.Values{})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("logout: %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if rr := do(t, srv, http.MethodGet, "/logout", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /logout: expected 405, got %d", rr.Code)
	}
}

func TestAPITransactions(t *testing.T) {
	srv, store := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/transactions", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status=%d content-type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	var resp transactionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != "850.00" || resp.Count != 2 || resp.Transactions[0].ID != "1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	store.FailGets(errors.New("unavailable"))
	if rr := do(t, srv, http.MethodGet, "/api/transactions", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on read failure, got %d", rr.Code)
	}
}

func TestPostRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2))

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/logout", url.Values{}); rr.Code != http.StatusSeeOther {
			t.Fatalf("request %d: status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/logout", url.Values{})
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/dashboard", nil); rr.Code != http.StatusOK {
		t.Fatalf("GET must not be rate limited, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/static/style.css", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("static: status=%d", rr.Code)
	}
}
