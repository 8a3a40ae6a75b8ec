package views

import (
	"sort"

	"folio-server/src/models"
)

const MoversLimit = 5

type Movers struct {
	Gainers []models.Holding `json:"gainers"`
	Losers  []models.Holding `json:"losers"`
}

// TopMovers ranks holdings by daily change percent. Holdings without a
// quote for today are left out.
func TopMovers(holdings []models.Holding, limit int) Movers {
	if limit <= 0 {
		limit = MoversLimit
	}
	var valid []models.Holding
	for _, h := range holdings {
		if h.DailyChangePercent != nil {
			valid = append(valid, h)
		}
	}

	gainers := append([]models.Holding(nil), valid...)
	sort.SliceStable(gainers, func(i, j int) bool {
		return *gainers[i].DailyChangePercent > *gainers[j].DailyChangePercent
	})
	losers := append([]models.Holding(nil), valid...)
	sort.SliceStable(losers, func(i, j int) bool {
		return *losers[i].DailyChangePercent < *losers[j].DailyChangePercent
	})

	return Movers{Gainers: head(gainers, limit), Losers: head(losers, limit)}
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}
