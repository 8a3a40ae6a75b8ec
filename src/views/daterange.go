package views

import (
	"fmt"
	"time"

	"folio-server/src/models"
)

type RangeName string

const (
	RangeAll       RangeName = "all"
	RangeLast7     RangeName = "last7"
	RangeLast30    RangeName = "last30"
	RangeThisMonth RangeName = "thisMonth"
	RangeLastMonth RangeName = "lastMonth"
	RangeThisYear  RangeName = "thisYear"
	RangeCustom    RangeName = "custom"
)

// customFallbackDays is how far back a custom range with only an end date
// reaches.
const customFallbackDays = 30

// DateRange is an inclusive day interval. A zero bound is open.
type DateRange struct {
	From models.Date `json:"from"`
	To   models.Date `json:"to"`
}

func (r DateRange) Contains(d models.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	if r.From.IsZero() && r.To.IsZero() {
		return "all time"
	}
	return fmt.Sprintf("%s .. %s", r.From, r.To)
}

func firstOfMonth(d models.Date) models.Date {
	return models.NewDate(d.Year(), d.Month(), 1)
}

// ResolveRange turns a named range into concrete bounds anchored on today.
// from and to are only read for RangeCustom.
func ResolveRange(name RangeName, today models.Date, from, to models.Date) (DateRange, error) {
	switch name {
	case RangeAll, "":
		return DateRange{}, nil
	case RangeLast7:
		return DateRange{From: today.AddDays(-7), To: today}, nil
	case RangeLast30:
		return DateRange{From: today.AddDays(-30), To: today}, nil
	case RangeThisMonth:
		return DateRange{From: firstOfMonth(today), To: today}, nil
	case RangeLastMonth:
		start := firstOfMonth(models.Date{Time: firstOfMonth(today).AddDate(0, -1, 0)})
		return DateRange{From: start, To: firstOfMonth(today).AddDays(-1)}, nil
	case RangeThisYear:
		return DateRange{From: models.NewDate(today.Year(), time.January, 1), To: today}, nil
	case RangeCustom:
		switch {
		case !from.IsZero() && to.IsZero():
			to = today
		case from.IsZero() && !to.IsZero():
			from = to.AddDays(-customFallbackDays)
		}
		if !from.IsZero() && !to.IsZero() && from.After(to) {
			from, to = to, from
		}
		return DateRange{From: from, To: to}, nil
	}
	return DateRange{}, fmt.Errorf("%w: unknown range %q", models.ErrInvalid, name)
}

// FilterByDate keeps the items whose date falls inside r.
func FilterByDate[T any](items []T, r DateRange, date func(T) models.Date) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if r.Contains(date(it)) {
			out = append(out, it)
		}
	}
	return out
}
