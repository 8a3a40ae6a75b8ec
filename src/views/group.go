package views

import (
	"sort"
	"strings"

	"folio-server/src/models"

	"github.com/shopspring/decimal"
)

const UncategorizedName = "Uncategorized"

type Group[T any] struct {
	CategoryID int     `json:"category_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Items      []T     `json:"items"`
	Total      float64 `json:"total"`
}

// GroupByCategory buckets items by category, keeping input order inside a
// bucket. Buckets are sorted by category name, case-insensitively, ties by
// id. Items with no or an unknown category land in a trailing
// Uncategorized bucket, so every item appears exactly once.
func GroupByCategory[T any](items []T, categories []models.Category, categoryOf func(T) (int, bool), amount func(T) float64) []Group[T] {
	byID := make(map[int]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	buckets := make(map[int][]T)
	var orphans []T
	for _, it := range items {
		id, ok := categoryOf(it)
		if _, known := byID[id]; !ok || !known {
			orphans = append(orphans, it)
			continue
		}
		buckets[id] = append(buckets[id], it)
	}

	groups := make([]Group[T], 0, len(buckets)+1)
	for id, members := range buckets {
		c := byID[id]
		groups = append(groups, Group[T]{
			CategoryID: id,
			Name:       c.Name,
			Type:       string(c.Type),
			Items:      members,
			Total:      sum(members, amount),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := strings.ToLower(groups[i].Name), strings.ToLower(groups[j].Name)
		if a != b {
			return a < b
		}
		return groups[i].CategoryID < groups[j].CategoryID
	})

	if len(orphans) > 0 {
		groups = append(groups, Group[T]{Name: UncategorizedName, Items: orphans, Total: sum(orphans, amount)})
	}
	return groups
}

func sum[T any](items []T, amount func(T) float64) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(amount(it)))
	}
	return total.InexactFloat64()
}

func GroupBudgetItems(items []models.BudgetItem, categories []models.Category) []Group[models.BudgetItem] {
	return GroupByCategory(items, categories,
		func(b models.BudgetItem) (int, bool) { return b.CategoryID, b.CategoryID > 0 },
		func(b models.BudgetItem) float64 { return b.AmountMonthly })
}

func GroupTransactions(txns []models.Transaction, categories []models.Category) []Group[models.Transaction] {
	return GroupByCategory(txns, categories,
		func(t models.Transaction) (int, bool) {
			if t.CategoryID == nil {
				return 0, false
			}
			return *t.CategoryID, true
		},
		func(t models.Transaction) float64 { return t.Amount })
}
