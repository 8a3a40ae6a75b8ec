package views

import (
	"fmt"
	"time"

	"folio-server/src/models"
)

type Period string

const (
	Period1W  Period = "1W"
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	PeriodYTD Period = "YTD"
	Period1Y  Period = "1Y"
	Period2Y  Period = "2Y"
	Period3Y  Period = "3Y"
	PeriodAll Period = "All"
)

var Periods = []Period{Period1W, Period1M, Period3M, PeriodYTD, Period1Y, Period2Y, Period3Y, PeriodAll}

// Start returns the first instant covered by p when looking back from now.
// The zero time means unbounded.
func (p Period) Start(now time.Time) (time.Time, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case Period1W:
		return day.AddDate(0, 0, -7), nil
	case Period1M:
		return day.AddDate(0, -1, 0), nil
	case Period3M:
		return day.AddDate(0, -3, 0), nil
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case Period1Y:
		return day.AddDate(-1, 0, 0), nil
	case Period2Y:
		return day.AddDate(-2, 0, 0), nil
	case Period3Y:
		return day.AddDate(-3, 0, 0), nil
	case PeriodAll, "":
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown period %q", models.ErrInvalid, p)
}

// TrimHistory keeps the points at or after the period's start.
func TrimHistory(points []models.HistoryPoint, p Period, now time.Time) ([]models.HistoryPoint, error) {
	start, err := p.Start(now)
	if err != nil {
		return nil, err
	}
	out := make([]models.HistoryPoint, 0, len(points))
	for _, pt := range points {
		if start.IsZero() || !pt.Timestamp.Before(start) {
			out = append(out, pt)
		}
	}
	return out, nil
}

// Latest returns the most recent point.
func Latest(points []models.HistoryPoint) (models.HistoryPoint, bool) {
	var best models.HistoryPoint
	found := false
	for _, pt := range points {
		if !found || pt.Timestamp.After(best.Timestamp.Time) {
			best = pt
			found = true
		}
	}
	return best, found
}

// PeriodChange is the value change across a trimmed series.
type PeriodChange struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Change  float64 `json:"change"`
	Percent float64 `json:"percent"`
}

func ChangeOver(points []models.HistoryPoint) PeriodChange {
	if len(points) == 0 {
		return PeriodChange{}
	}
	first, last := points[0], points[0]
	for _, pt := range points {
		if pt.Timestamp.Before(first.Timestamp.Time) {
			first = pt
		}
		if pt.Timestamp.After(last.Timestamp.Time) {
			last = pt
		}
	}
	c := PeriodChange{Start: first.TotalValue, End: last.TotalValue, Change: last.TotalValue - first.TotalValue}
	c.Percent = percentOf(c.Change, first.TotalValue)
	return c
}
