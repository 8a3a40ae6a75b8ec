package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"folio-server/src/backend"
	"folio-server/src/config"
	"folio-server/src/middleware"
	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/reorder"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// fakeBackend is a chi server standing in for the portfolio backend.
type fakeBackend struct {
	mu         sync.Mutex
	order      []int
	reorderErr bool
	creates    int
	uploads    []string
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/holdings/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"symbol":"XEQT","type":"etf","quantity":10,"purchase_price":25,"market_value":300,"daily_change_percent":1.5,"portfolio_id":1,"currency":"CAD"},
			{"id":2,"symbol":"AAPL","type":"stock","quantity":2,"purchase_price":150,"market_value":100,"daily_change_percent":-2,"portfolio_id":2,"currency":"USD"}
		]`)
	})
	r.Post("/holdings/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.creates++
		f.mu.Unlock()
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"Symbol not found"}`)
	})
	r.Get("/portfolios/summary", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := make([]models.PortfolioSummary, len(f.order))
		for i, id := range f.order {
			out[i] = models.PortfolioSummary{ID: id, Name: "p", TotalValue: 400}
		}
		json.NewEncoder(w).Encode(out)
	})
	r.Post("/portfolios/reorder", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.reorderErr {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"detail":"db locked"}`)
			return
		}
		var req models.ReorderRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.order = req.Order
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/portfolios/global-sector-allocation", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"provider down"}`)
	})
	r.Get("/fx/current", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/transactions/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"date":"2024-03-05","description":"Payroll","amount":1000,"category_id":1,"account_id":1},
			{"id":2,"date":"2024-03-10","description":"Rent March","amount":-200,"category_id":2,"account_id":1},
			{"id":3,"date":"2024-04-02","description":"Coffee","amount":-50,"category_id":null,"account_id":2}
		]`)
	})
	r.Get("/budget/categories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Salary","type":"income"},{"id":2,"name":"Rent","type":"expense"}]`)
	})
	r.Post("/transactions/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		f.mu.Lock()
		f.uploads = append(f.uploads, header.Filename+"?"+r.URL.RawQuery)
		f.mu.Unlock()
		io.WriteString(w, `{"processed":3,"new":2,"skipped":1,"categorized":2}`)
	})
	return r
}

func newTestClient(t *testing.T, f *fakeBackend) *query.Client {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	store, err := query.NewStore(query.Options{Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(store.Close)

	bc := backend.New(backend.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	return query.NewClient(store, bc, query.StaleTimes{
		Market: time.Hour, FX: time.Hour, Budget: time.Hour, Transactions: time.Hour,
	}, zerolog.Nop())
}

func testRouter(c *query.Client) http.Handler {
	m := reorder.NewMachine(c.PortfolioBoard(), zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/holdings", GetHoldings(c))
	r.Post("/api/holdings", CreateHolding(c))
	r.Get("/api/holdings/allocation", GetAllocation(c))
	r.Get("/api/holdings/movers", GetMovers(c))
	r.Get("/api/portfolios/summary", GetPortfolioSummaries(c))
	r.Post("/api/portfolios/reorder", ReorderPortfolios(m))
	r.Post("/api/portfolios/{portfolio_id}/move", MovePortfolio(m))
	r.Get("/api/sectors", GetSectors(c))
	r.Get("/api/fx", GetFX(c))
	r.Get("/api/transactions", GetTransactions(c))
	r.Get("/api/transactions/grouped", GetGroupedTransactions(c))
	r.Post("/api/transactions/upload", UploadTransactions(c))
	r.Post("/api/admin/cache/clear/{family}", ClearCache(c.Store()))
	return r
}

type envelopeBody struct {
	Data  json.RawMessage `json:"data"`
	Stale bool            `json:"stale"`
	Error string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelopeBody {
	t.Helper()
	var env envelopeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode detail: %v (body %s)", err, rec.Body.String())
	}
	return body.Detail
}

func TestGetHoldings(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/holdings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var holdings []models.Holding
	env := decodeEnvelope(t, rec, &holdings)
	if len(holdings) != 2 || env.Stale || env.Error != "" {
		t.Fatalf("holdings = %d, stale = %v, error = %q", len(holdings), env.Stale, env.Error)
	}

	rec = do(t, h, http.MethodGet, "/api/holdings?portfolio_id=2", "")
	decodeEnvelope(t, rec, &holdings)
	if len(holdings) != 1 || holdings[0].Symbol != "AAPL" {
		t.Fatalf("filtered holdings = %+v, want only AAPL", holdings)
	}

	rec = do(t, h, http.MethodGet, "/api/holdings?portfolio_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad portfolio_id status = %d, want 400", rec.Code)
	}
}

func TestReadWithoutDataIs502(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/sectors", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if got := detailOf(t, rec); got != "provider down" {
		t.Fatalf("detail = %q, want provider down", got)
	}
}

func TestFXFallsBackToDefault(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/fx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var fx models.FXRate
	env := decodeEnvelope(t, rec, &fx)
	if fx.USDCAD != models.DefaultUSDCAD || !env.Stale || env.Error == "" {
		t.Fatalf("fx = %v, stale = %v, error = %q", fx.USDCAD, env.Stale, env.Error)
	}
}

func TestCreateHoldingErrors(t *testing.T) {
	f := &fakeBackend{}
	h := testRouter(newTestClient(t, f))

	rec := do(t, h, http.MethodPost, "/api/holdings", `{"symbol":"zzzz","type":"stock","quantity":1,"purchase_price":1}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if got := detailOf(t, rec); got != "Symbol not found" {
		t.Fatalf("detail = %q, want backend detail", got)
	}

	for _, body := range []string{
		`{"symbol":"XEQT","type":"bond","quantity":1,"purchase_price":1}`,
		`{"symbol":"XEQT","type":"etf","quantity":0,"purchase_price":1}`,
		`{"symbol":"X Y","type":"stock","quantity":1,"purchase_price":1}`,
		`not json`,
	} {
		rec := do(t, h, http.MethodPost, "/api/holdings", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
	if f.creates != 1 {
		t.Fatalf("backend creates = %d, want 1", f.creates)
	}
}

func TestAllocationAndMovers(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/holdings/allocation", "")
	var alloc allocationResponse
	decodeEnvelope(t, rec, &alloc)
	if len(alloc.Rows) != 2 || alloc.USDCAD != models.DefaultUSDCAD {
		t.Fatalf("allocation = %+v", alloc)
	}
	// AAPL is 100 USD = 137 CAD, XEQT 300 CAD
	if alloc.Rows[0].Symbol != "XEQT" || alloc.Rows[1].ValueCAD != 137 {
		t.Fatalf("rows = %+v", alloc.Rows)
	}

	rec = do(t, h, http.MethodGet, "/api/holdings/movers?limit=1", "")
	var movers struct {
		Gainers []models.Holding `json:"gainers"`
		Losers  []models.Holding `json:"losers"`
	}
	decodeEnvelope(t, rec, &movers)
	if len(movers.Gainers) != 1 || movers.Gainers[0].Symbol != "XEQT" {
		t.Fatalf("gainers = %+v", movers.Gainers)
	}
	if len(movers.Losers) != 1 || movers.Losers[0].Symbol != "AAPL" {
		t.Fatalf("losers = %+v", movers.Losers)
	}
}

func summaryOrder(t *testing.T, h http.Handler) []int {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/portfolios/summary", "")
	var summaries []models.PortfolioSummary
	decodeEnvelope(t, rec, &summaries)
	ids := make([]int, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids
}

func TestReorderRollsBackOnFailure(t *testing.T) {
	f := &fakeBackend{order: []int{1, 2, 3}, reorderErr: true}
	h := testRouter(newTestClient(t, f))

	rec := do(t, h, http.MethodPost, "/api/portfolios/reorder", `{"order":[3,1,2]}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if got := summaryOrder(t, h); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("order after failure = %v, want [1 2 3]", got)
	}

	rec = do(t, h, http.MethodPost, "/api/portfolios/reorder", `{"order":[1,2]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("partial order status = %d, want 400", rec.Code)
	}
}

func TestMovePortfolio(t *testing.T) {
	f := &fakeBackend{order: []int{1, 2, 3}}
	h := testRouter(newTestClient(t, f))

	rec := do(t, h, http.MethodPost, "/api/portfolios/3/move", `{"to_index":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var resp orderResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !reflect.DeepEqual(resp.Order, []int{3, 1, 2}) {
		t.Fatalf("order = %v, want [3 1 2]", resp.Order)
	}
	if got := summaryOrder(t, h); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Fatalf("refetched order = %v, want [3 1 2]", got)
	}

	rec = do(t, h, http.MethodPost, "/api/portfolios/9/move", `{"to_index":0}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown portfolio status = %d, want 404", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/portfolios/1/move", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing to_index status = %d, want 400", rec.Code)
	}
}

func TestGetTransactionsFiltersAndTotals(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/transactions?range=custom&from=2024-03-01&to=2024-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Transactions []models.Transaction `json:"transactions"`
		Totals       struct {
			Income  float64 `json:"income"`
			Expense float64 `json:"expense"`
			Net     float64 `json:"net"`
		} `json:"totals"`
	}
	decodeEnvelope(t, rec, &resp)
	if len(resp.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(resp.Transactions))
	}
	if resp.Totals.Income != 1000 || resp.Totals.Expense != 200 || resp.Totals.Net != 800 {
		t.Fatalf("totals = %+v", resp.Totals)
	}

	rec = do(t, h, http.MethodGet, "/api/transactions?range=all&q=rent", "")
	decodeEnvelope(t, rec, &resp)
	if len(resp.Transactions) != 1 || resp.Transactions[0].ID != 2 {
		t.Fatalf("search result = %+v", resp.Transactions)
	}

	rec = do(t, h, http.MethodGet, "/api/transactions?range=fortnight", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown range status = %d, want 400", rec.Code)
	}
}

func TestGroupedTransactions(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodGet, "/api/transactions/grouped?range=all", "")
	var groups []struct {
		Name  string               `json:"name"`
		Items []models.Transaction `json:"items"`
	}
	decodeEnvelope(t, rec, &groups)
	var names []string
	total := 0
	for _, g := range groups {
		names = append(names, g.Name)
		total += len(g.Items)
	}
	if !reflect.DeepEqual(names, []string{"Rent", "Salary", "Uncategorized"}) || total != 3 {
		t.Fatalf("groups = %v with %d items", names, total)
	}
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	io.WriteString(part, content)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadTransactions(t *testing.T) {
	f := &fakeBackend{}
	h := testRouter(newTestClient(t, f))

	body, contentType := multipartBody(t, "march.csv", "date,description,amount\n2024-03-05,Payroll,1000\n")
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/upload?account_id=4", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var result models.UploadResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.New != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	if !reflect.DeepEqual(f.uploads, []string{"march.csv?account_id=4"}) {
		t.Fatalf("uploads = %v", f.uploads)
	}

	body, contentType = multipartBody(t, "march.xlsx", "nope")
	req = httptest.NewRequest(http.MethodPost, "/api/transactions/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-csv status = %d, want 400", rec.Code)
	}
}

func TestClearCache(t *testing.T) {
	h := testRouter(newTestClient(t, &fakeBackend{}))

	rec := do(t, h, http.MethodPost, "/api/admin/cache/clear/holdings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/admin/cache/clear/nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown family status = %d, want 400", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	cfg := config.Config{JWTSecret: "secret", DashboardUser: "admin", DashboardPasswordHash: string(hash)}
	h := Login(cfg)

	rec := do(t, h, http.MethodPost, "/api/login", `{"username":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"Admin","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)

	req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
	req.Header.Set("Authorization", "Bearer "+body["token"])
	claims, err := middleware.ParseTokenFromRequest(req, []byte("secret"))
	if err != nil {
		t.Fatalf("issued token rejected: %v", err)
	}
	if claims["username"] != "admin" {
		t.Fatalf("username claim = %v, want admin", claims["username"])
	}

	rec = do(t, Login(config.Config{}), http.MethodPost, "/api/login", `{"username":"admin","password":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled auth status = %d, want 404", rec.Code)
	}
}

func TestStatusForReorderErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{reorder.ErrBusy, http.StatusConflict},
		{reorder.ErrNotDragging, http.StatusConflict},
		{fmt.Errorf("%w: 9", reorder.ErrUnknownItem), http.StatusNotFound},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
