package handlers

import (
	"fmt"
	"net/http"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/util"
	"folio-server/src/views"
)

const maxLimit = 50

// GetHoldings lists holdings, optionally only those of ?portfolio_id=.
func GetHoldings(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portfolioID, err := optionalID(r, "portfolio_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		res := c.Holdings.Get(r.Context())
		if portfolioID != nil {
			res = derive(res, func(hs []models.Holding) []models.Holding {
				return views.HoldingsIn(hs, *portfolioID)
			})
		}
		writeRead(w, r, res)
	}
}

func decodeHolding(w http.ResponseWriter, r *http.Request) (models.HoldingInput, error) {
	var in models.HoldingInput
	if err := decodeBody(w, r, &in); err != nil {
		return in, err
	}
	in.Normalize()
	if in.Symbol != "" && !util.ValidateSymbol(in.Symbol) {
		return in, invalid(fmt.Errorf("malformed symbol %q", in.Symbol))
	}
	for _, u := range in.Underlyings {
		if !util.ValidateSymbol(u.Symbol) {
			return in, invalid(fmt.Errorf("malformed underlying symbol %q", u.Symbol))
		}
	}
	return in, nil
}

func CreateHolding(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeHolding(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		created, err := c.CreateHolding(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateHolding(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "holding_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		in, err := decodeHolding(w, r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		updated, err := c.UpdateHolding(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteHolding(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "holding_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.DeleteHolding(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetDividend sets or, with a null value, clears the manual dividend.
func SetDividend(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "holding_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in models.DividendOverride
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.SetDividend(r.Context(), id, in); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type allocationResponse struct {
	Rows   []views.AllocationRow `json:"rows"`
	Pie    views.Pie             `json:"pie"`
	USDCAD float64               `json:"usdcad"`
}

func allocationView(holdings []models.Holding, total, usdcad float64, top int) allocationResponse {
	return allocationResponse{
		Rows:   views.Allocation(holdings, total, usdcad),
		Pie:    views.AllocationPie(views.HoldingSlices(holdings, usdcad), top),
		USDCAD: usdcad,
	}
}

// GetAllocation breaks all holdings down by CAD value.
func GetAllocation(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := util.ParseLimit(r.URL.Query().Get("top"), views.AllocationTopN, maxLimit)
		if err != nil {
			writeError(w, r, invalid(err))
			return
		}
		usdcad := c.USDCAD(r.Context())
		res := c.Holdings.Get(r.Context())
		writeRead(w, r, derive(res, func(hs []models.Holding) allocationResponse {
			return allocationView(hs, 0, usdcad, top)
		}))
	}
}

func GetMovers(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := util.ParseLimit(r.URL.Query().Get("limit"), views.MoversLimit, maxLimit)
		if err != nil {
			writeError(w, r, invalid(err))
			return
		}
		res := c.Holdings.Get(r.Context())
		writeRead(w, r, derive(res, func(hs []models.Holding) views.Movers {
			return views.TopMovers(hs, limit)
		}))
	}
}
