package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"folio-server/src/backend"
	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/reorder"
	"folio-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

var errUnavailable = errors.New("data unavailable")

// readResponse wraps every cached read. Data can be present together with
// Error when the last refresh failed and an older value is served.
type readResponse struct {
	Data      any        `json:"data"`
	Stale     bool       `json:"stale"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func envelope[T any](res query.Result[T]) readResponse {
	out := readResponse{Stale: res.Stale}
	if res.HasData {
		out.Data = res.Data
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if !res.UpdatedAt.IsZero() {
		t := res.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// derive maps a read onto a computed view, keeping its freshness.
func derive[T, U any](res query.Result[T], fn func(T) U) query.Result[U] {
	out := query.Result[U]{
		HasData:   res.HasData,
		Err:       res.Err,
		UpdatedAt: res.UpdatedAt,
		Stale:     res.Stale,
		Fetching:  res.Fetching,
	}
	if res.HasData {
		out.Data = fn(res.Data)
	}
	return out
}

// writeRead answers a cached read, or 502 when there is nothing to show.
func writeRead[T any](w http.ResponseWriter, r *http.Request, res query.Result[T]) {
	if !res.HasData {
		err := res.Err
		if err == nil {
			err = errUnavailable
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(res))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func statusFor(err error) (int, string) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		detail := apiErr.Detail
		if detail == "" {
			detail = apiErr.Error()
		}
		if apiErr.Kind == backend.KindValidation {
			return apiErr.Status, detail
		}
		return http.StatusBadGateway, detail
	case errors.Is(err, models.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, reorder.ErrBusy), errors.Is(err, reorder.ErrNotDragging):
		return http.StatusConflict, err.Error()
	case errors.Is(err, reorder.ErrUnknownItem):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "backend timed out"
	case errors.Is(err, errUnavailable):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	l := zerolog.Ctx(r.Context())
	event := l.Warn()
	if status >= http.StatusInternalServerError {
		event = l.Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	writeDetail(w, status, detail)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", models.ErrInvalid, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return invalid(fmt.Errorf("request body: %w", err))
	}
	return nil
}

func urlID(r *http.Request, name string) (int, error) {
	id, err := util.ParseID(chi.URLParam(r, name))
	if err != nil {
		return 0, invalid(err)
	}
	return id, nil
}

// optionalID reads an optional positive id from the query string.
func optionalID(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := util.ParseID(raw)
	if err != nil {
		return nil, invalid(err)
	}
	return &id, nil
}
