package views

import (
	"math"
	"sort"

	"folio-server/src/models"
)

// EffectiveTotal is total when it is a usable positive number, otherwise
// the sum of the values being displayed.
func EffectiveTotal(total float64, values []float64) float64 {
	if total > 0 && !math.IsInf(total, 0) {
		return total
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// AllocationPercent is value's share of the effective total, or zero when
// there is nothing to divide by.
func AllocationPercent(value, total float64, values []float64) float64 {
	eff := EffectiveTotal(total, values)
	if eff == 0 || math.IsNaN(eff) {
		return 0
	}
	return value / eff * 100
}

type AllocationRow struct {
	HoldingID int     `json:"holding_id"`
	Symbol    string  `json:"symbol"`
	ValueCAD  float64 `json:"value_cad"`
	Percent   float64 `json:"percent"`
}

// Allocation lists holdings by CAD value, largest first, with their share
// of total. total may be zero, in which case the holdings' own sum is used.
func Allocation(holdings []models.Holding, total, usdcad float64) []AllocationRow {
	rows := make([]AllocationRow, len(holdings))
	values := make([]float64, len(holdings))
	for i, h := range holdings {
		v := ToCAD(h.Value(), h.Currency, usdcad)
		values[i] = v
		rows[i] = AllocationRow{HoldingID: h.ID, Symbol: h.Symbol, ValueCAD: v}
	}
	for i := range rows {
		rows[i].Percent = AllocationPercent(rows[i].ValueCAD, total, values)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ValueCAD > rows[j].ValueCAD })
	return rows
}

// HoldingsIn returns the holdings of one portfolio.
func HoldingsIn(holdings []models.Holding, portfolioID int) []models.Holding {
	var out []models.Holding
	for _, h := range holdings {
		if h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	return out
}
