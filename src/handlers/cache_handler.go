package handlers

import (
	"fmt"
	"net/http"

	"folio-server/src/query"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ClearCache drops every cached entry of one family, or of all of them
// when the family is "all".
func ClearCache(store *query.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "family")

		var families []query.Family
		if name == "all" {
			families = store.Families()
		} else {
			f, ok := query.ParseFamily(name)
			if !ok {
				writeError(w, r, invalid(fmt.Errorf("unknown cache family %q", name)))
				return
			}
			families = []query.Family{f}
		}

		keys := store.Clear(families...)
		zerolog.Ctx(r.Context()).Info().Str("family", name).Strs("keys", keys).Msg("cleared cache")
		writeJSON(w, http.StatusOK, map[string]any{
			"family": name,
			"keys":   keys,
		})
	}
}
