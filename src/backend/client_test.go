package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"folio-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL: srv.URL,
		Token:   "secret",
		Timeout: 2 * time.Second,
		Retries: 2,
		Backoff: time.Millisecond,
		Logger:  zerolog.Nop(),
	})
}

func TestHoldingsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/holdings/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if calls.Add(1) == 1 {
			http.Error(w, `{"detail":"warming up"}`, http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[{"id":1,"symbol":"VFV","type":"etf","quantity":10,"purchase_price":100,"portfolio_id":1}]`)
	})
	c := newTestClient(t, r)

	holdings, err := c.Holdings(context.Background())
	if err != nil {
		t.Fatalf("Holdings() error = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
	if len(holdings) != 1 || holdings[0].Currency != models.CAD {
		t.Fatalf("holdings = %+v, want one CAD holding", holdings)
	}
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post("/portfolios/reorder", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"detail":"upstream down"}`)
	})
	c := newTestClient(t, r)

	err := c.ReorderPortfolios(context.Background(), []int{2, 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Kind != KindServer || apiErr.Detail != "upstream down" {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestValidationDetailIsSurfaced(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/holdings/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"loc":["body","quantity"],"msg":"must be positive"}]}`)
	})
	c := newTestClient(t, r)

	_, err := c.CreateHolding(context.Background(), models.HoldingInput{Symbol: "X", Type: models.AssetStock, Quantity: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Kind != KindValidation || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("APIError = %+v", apiErr)
	}
	if apiErr.Detail != "quantity: must be positive" {
		t.Fatalf("Detail = %q", apiErr.Detail)
	}
	if apiErr.Transient() {
		t.Fatalf("validation error reported as transient")
	}
}

func TestInvalidPayloadIsRejected(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/budget/items", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":3,"item_type":"gift","name":"x","amount_monthly":1,"category_id":1}]`)
	})
	c := newTestClient(t, r)

	_, err := c.BudgetItems(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindDecode {
		t.Fatalf("error = %v, want decode APIError", err)
	}
	if !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("error does not wrap models.ErrInvalid: %v", err)
	}
}

func TestFXRate(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/fx/current", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"usdcad_rate":1.3521,"timestamp":"2024-03-15T14:30:00"}`)
	})
	c := newTestClient(t, r)

	fx, err := c.FXRate(context.Background())
	if err != nil {
		t.Fatalf("FXRate() error = %v", err)
	}
	if fx.USDCAD != 1.3521 {
		t.Fatalf("USDCAD = %v, want 1.3521", fx.USDCAD)
	}
	if fx.Timestamp.Hour() != 14 {
		t.Fatalf("Timestamp = %v", fx.Timestamp)
	}
}

func TestFXRateMissingField(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/fx/current", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rate":"n/a"}`)
	})
	c := newTestClient(t, r)

	if _, err := c.FXRate(context.Background()); err == nil {
		t.Fatalf("FXRate() error = nil, want decode error")
	}
}

func TestUploadTransactions(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/transactions/upload", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("account_id"); got != "7" {
			t.Errorf("account_id = %q, want 7", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Filename != "march.csv" || !strings.HasPrefix(string(body), "date,") {
			t.Errorf("upload = %s %q", hdr.Filename, body)
		}
		io.WriteString(w, `{"processed":3,"new":2,"skipped":1,"categorized":2}`)
	})
	c := newTestClient(t, r)

	account := 7
	res, err := c.UploadTransactions(context.Background(), "march.csv", strings.NewReader("date,description,amount\n"), &account)
	if err != nil {
		t.Fatalf("UploadTransactions() error = %v", err)
	}
	if res.New != 2 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL, Retries: 5, Backoff: time.Hour, Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Accounts(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}
