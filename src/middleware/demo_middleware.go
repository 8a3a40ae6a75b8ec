package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// readOnlyExceptions are the writes a demo deployment still accepts.
var readOnlyExceptions = map[string]bool{
	http.MethodPost + " /api/login": true,
}

// DemoModeMiddleware makes the dashboard read-only, apart from logging in.
// Cache refreshes still happen through reads, so the data keeps moving.
func DemoModeMiddleware(isDemo bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !isDemo {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if readOnlyExceptions[r.Method+" "+r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			zerolog.Ctx(r.Context()).Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("write blocked in demo mode")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "demo mode: the dashboard is read-only"})
		})
	}
}
