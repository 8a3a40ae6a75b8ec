package handlers

import (
	"errors"
	"net/http"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/reorder"
	"folio-server/src/util"
	"folio-server/src/views"
)

func GetPortfolios(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.Portfolios.Get(r.Context()))
	}
}

// GetPortfolioSummaries returns the portfolio cards in display order.
func GetPortfolioSummaries(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.Summaries.Get(r.Context()))
	}
}

func CreatePortfolio(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.PortfolioInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := c.CreatePortfolio(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdatePortfolio(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "portfolio_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in models.PortfolioInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		updated, err := c.UpdatePortfolio(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeletePortfolio(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "portfolio_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.DeletePortfolio(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type orderResponse struct {
	Order []int `json:"order"`
}

// ReorderPortfolios saves a full new card order. On failure the cached
// order is rolled back before the error is returned.
func ReorderPortfolios(m *reorder.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ReorderRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		order, err := m.Reorder(r.Context(), req.Order)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Order: order})
	}
}

// MovePortfolio drags one card to a new index.
func MovePortfolio(m *reorder.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "portfolio_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req struct {
			ToIndex *int `json:"to_index"`
		}
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.ToIndex == nil {
			writeError(w, r, invalid(errors.New("to_index is required")))
			return
		}
		order, err := m.Move(r.Context(), id, *req.ToIndex)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Order: order})
	}
}

// GetPortfolioAllocation breaks one portfolio down by holding. The
// portfolio's card total is used as the denominator when it is known.
func GetPortfolioAllocation(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "portfolio_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		top, err := util.ParseLimit(r.URL.Query().Get("top"), views.AllocationTopN, maxLimit)
		if err != nil {
			writeError(w, r, invalid(err))
			return
		}

		total := 0.0
		if summaries := c.Summaries.Get(r.Context()); summaries.HasData {
			for _, s := range summaries.Data {
				if s.ID == id {
					total = s.TotalValue
				}
			}
		}
		usdcad := c.USDCAD(r.Context())
		res := c.Holdings.Get(r.Context())
		writeRead(w, r, derive(res, func(hs []models.Holding) allocationResponse {
			return allocationView(views.HoldingsIn(hs, id), total, usdcad, top)
		}))
	}
}
