package views

import (
	"math"
	"sort"

	"folio-server/src/models"

	"github.com/shopspring/decimal"
)

const (
	OtherLabel = "Other"
	// CategoryMinValue is the amount below which a budget category is
	// folded into Other.
	CategoryMinValue = 100
	// AllocationTopN is how many holdings an allocation pie shows.
	AllocationTopN = 8
)

type Slice struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	Other   bool    `json:"other,omitempty"`
}

// PieOptions choose which inputs are folded into the Other slice. A zero
// MinValue or TopN disables that rule.
type PieOptions struct {
	MinValue float64
	TopN     int
}

type Pie struct {
	Slices []Slice `json:"slices"`
	// Legend lists every input, largest first, against the full total.
	Legend []Slice `json:"legend"`
	Total  float64 `json:"total"`
}

// AggregateSlices builds a pie from raw name/value pairs. Values are taken
// by magnitude. Inputs below MinValue or beyond the TopN largest are merged
// into one Other slice; percentages are against the total of the slices
// actually shown, which equals the total of the inputs.
func AggregateSlices(items []models.PieSlice, opts PieOptions) Pie {
	sorted := make([]models.PieSlice, 0, len(items))
	for _, it := range items {
		v := math.Abs(it.Value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, models.PieSlice{Name: it.Name, Value: v})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		return sorted[i].Name < sorted[j].Name
	})

	total := decimal.Zero
	for _, it := range sorted {
		total = total.Add(decimal.NewFromFloat(it.Value))
	}
	totalF := total.InexactFloat64()

	pie := Pie{Total: totalF, Slices: []Slice{}, Legend: make([]Slice, 0, len(sorted))}
	other := decimal.Zero
	for i, it := range sorted {
		pie.Legend = append(pie.Legend, Slice{Name: it.Name, Value: it.Value, Percent: percentOf(it.Value, totalF)})
		if it.Value == 0 {
			continue
		}
		small := opts.MinValue > 0 && it.Value < opts.MinValue
		beyond := opts.TopN > 0 && i >= opts.TopN
		if small || beyond {
			other = other.Add(decimal.NewFromFloat(it.Value))
			continue
		}
		pie.Slices = append(pie.Slices, Slice{Name: it.Name, Value: it.Value})
	}
	if other.IsPositive() {
		pie.Slices = append(pie.Slices, Slice{Name: OtherLabel, Value: other.InexactFloat64(), Other: true})
	}

	shown := decimal.Zero
	for _, s := range pie.Slices {
		shown = shown.Add(decimal.NewFromFloat(s.Value))
	}
	shownF := shown.InexactFloat64()
	for i := range pie.Slices {
		pie.Slices[i].Percent = percentOf(pie.Slices[i].Value, shownF)
	}
	return pie
}

func percentOf(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	return v / total * 100
}

// CategoryPie folds categories under CategoryMinValue (or minValue when
// positive) into Other.
func CategoryPie(totals []models.CategoryTotal, minValue float64) Pie {
	if minValue <= 0 {
		minValue = CategoryMinValue
	}
	items := make([]models.PieSlice, len(totals))
	for i, t := range totals {
		items[i] = models.PieSlice{Name: t.Category, Value: t.Total}
	}
	return AggregateSlices(items, PieOptions{MinValue: minValue})
}

// AllocationPie keeps the topN largest positions (AllocationTopN when
// topN is not positive) and folds the rest into Other.
func AllocationPie(items []models.PieSlice, topN int) Pie {
	if topN <= 0 {
		topN = AllocationTopN
	}
	return AggregateSlices(items, PieOptions{TopN: topN})
}

// HoldingSlices sums holding values per symbol, converting USD positions
// to CAD at usdcad.
func HoldingSlices(holdings []models.Holding, usdcad float64) []models.PieSlice {
	idx := make(map[string]int)
	var out []models.PieSlice
	for _, h := range holdings {
		v := ToCAD(h.Value(), h.Currency, usdcad)
		if i, ok := idx[h.Symbol]; ok {
			out[i].Value += v
			continue
		}
		idx[h.Symbol] = len(out)
		out = append(out, models.PieSlice{Name: h.Symbol, Value: v})
	}
	return out
}
