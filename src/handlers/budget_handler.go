package handlers

import (
	"fmt"
	"net/http"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/util"
	"folio-server/src/views"
)

func GetBudgetSummary(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.BudgetSummary.Get(r.Context()))
	}
}

func GetBudgetItems(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.BudgetItems.Get(r.Context()))
	}
}

// GetGroupedBudgetItems buckets items by category. Without categories
// every item lands in Uncategorized.
func GetGroupedBudgetItems(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats := c.Categories.Get(r.Context())
		res := c.BudgetItems.Get(r.Context())
		writeRead(w, r, derive(res, func(items []models.BudgetItem) []views.Group[models.BudgetItem] {
			return views.GroupBudgetItems(items, cats.Data)
		}))
	}
}

func CreateBudgetItem(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.BudgetItemInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := c.CreateBudgetItem(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateBudgetItem(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "item_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in models.BudgetItemInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		updated, err := c.UpdateBudgetItem(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteBudgetItem(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "item_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.DeleteBudgetItem(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetCategories(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.Categories.Get(r.Context()))
	}
}

func CreateCategory(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.CategoryInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		created, err := c.CreateCategory(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateCategory(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "category_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in models.CategoryInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		updated, err := c.UpdateCategory(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteCategory(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "category_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.DeleteCategory(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetCategoryPie charts spending (or, with ?type=income, income) per
// category, folding categories under ?threshold= into Other.
func GetCategoryPie(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow := models.Flow(r.URL.Query().Get("type"))
		if flow == "" {
			flow = models.Expense
		}
		if !flow.Valid() {
			writeError(w, r, invalid(fmt.Errorf("type must be income or expense, got %q", flow)))
			return
		}
		threshold, err := util.ParseAmount(r.URL.Query().Get("threshold"), views.CategoryMinValue)
		if err != nil {
			writeError(w, r, invalid(err))
			return
		}

		res := c.TransactionSummary.Get(r.Context())
		writeRead(w, r, derive(res, func(s *models.TransactionSummary) views.Pie {
			if s == nil {
				return views.Pie{}
			}
			totals := s.Expense
			if flow == models.Income {
				totals = s.Income
			}
			return views.CategoryPie(totals, threshold)
		}))
	}
}
