package models

import (
	"fmt"
	"strings"
)

type Portfolio struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	IsDefault    bool   `json:"is_default"`
	DisplayOrder int    `json:"display_order"`
}

func (p *Portfolio) Validate() error {
	if p.ID <= 0 {
		return invalidf("portfolio id %d", p.ID)
	}
	return nil
}

type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PortfolioSummary is the card shown per portfolio. The backend returns
// these in display order.
type PortfolioSummary struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	IsDefault      bool       `json:"isDefault"`
	TotalValue     float64    `json:"totalValue"`
	GainLoss       float64    `json:"gainLoss"`
	DailyChange    float64    `json:"dailyChange"`
	DailyPercent   float64    `json:"dailyPercent"`
	AllTimePercent float64    `json:"allTimePercent"`
	PieData        []PieSlice `json:"pieData"`
}

func (s *PortfolioSummary) Validate() error {
	if s.ID <= 0 {
		return invalidf("portfolio summary id %d", s.ID)
	}
	if !finite(s.TotalValue) || !finite(s.DailyChange) || !finite(s.GainLoss) {
		return invalidf("portfolio summary %d: non-finite totals", s.ID)
	}
	return nil
}

type PortfolioInput struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

func (in *PortfolioInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("portfolio name is required")
	}
	return nil
}

type ReorderRequest struct {
	Order []int `json:"order"`
}

// CheckPermutation reports whether order contains exactly the ids in
// current, each once.
func CheckPermutation(current, order []int) error {
	if len(current) != len(order) {
		return invalidf("reorder has %d ids, expected %d", len(order), len(current))
	}
	want := make(map[int]bool, len(current))
	for _, id := range current {
		want[id] = true
	}
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		if !want[id] {
			return invalidf("unknown portfolio id %d", id)
		}
		if seen[id] {
			return invalidf("duplicate portfolio id %d", id)
		}
		seen[id] = true
	}
	return nil
}

func (r ReorderRequest) String() string {
	ids := make([]string, len(r.Order))
	for i, id := range r.Order {
		ids[i] = fmt.Sprint(id)
	}
	return strings.Join(ids, ",")
}
