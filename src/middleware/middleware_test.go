package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func whoami(w http.ResponseWriter, r *http.Request) {
	name, _ := Username(r.Context())
	w.Write([]byte(name))
}

func TestJWTAuthMiddleware(t *testing.T) {
	h := JWTAuthMiddleware(testSecret)(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"username": "sam", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized, ""},
		{"no expiry", "Bearer " + signed(t, jwt.MapClaims{"username": "sam"}), http.StatusUnauthorized, ""},
		{"valid", "Bearer " + signed(t, jwt.MapClaims{"username": "sam", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusOK, "sam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestJWTAuthMiddlewareDisabled(t *testing.T) {
	h := JWTAuthMiddleware("")(http.HandlerFunc(whoami))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/holdings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://dash.example"})(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodOptions, "/api/holdings", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("Allow-Origin = %q, want https://dash.example", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin = %q for unknown origin, want empty", got)
	}
}

func TestDemoModeMiddleware(t *testing.T) {
	h := DemoModeMiddleware(true)(http.HandlerFunc(whoami))

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/holdings", http.StatusOK},
		{http.MethodPost, "/api/login", http.StatusOK},
		{http.MethodPost, "/api/holdings", http.StatusForbidden},
		{http.MethodDelete, "/api/holdings/1", http.StatusForbidden},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.status {
			t.Fatalf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.status)
		}
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	h := RequestLogger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing %s header", RequestIDHeader)
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("%s = %q, want abc", RequestIDHeader, got)
	}
}
