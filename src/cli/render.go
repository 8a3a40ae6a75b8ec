package cli

import (
	"fmt"
	"strings"

	"folio-server/src/models"
	"folio-server/src/views"
)

// cell escapes text for a markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func optPercent(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return views.Percent(*p).SignedString()
}

// HoldingsMarkdown renders holdings with their CAD value.
func HoldingsMarkdown(holdings []models.Holding, usdcad float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\n")
	if len(holdings) == 0 {
		fmt.Fprintln(&b, "No holdings.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Symbol | Type | Quantity | Value | Value (CAD) | Today | All time |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|")
	total := 0.0
	for _, h := range holdings {
		cad := views.ToCAD(h.Value(), h.Currency, usdcad)
		total += cad
		fmt.Fprintf(&b, "| %s | %s | %g | %s | %s | %s | %s |\n",
			cell(h.Symbol),
			h.Type,
			h.Quantity,
			views.FormatMoney(h.Value(), h.Currency),
			views.FormatMoney(cad, models.CAD),
			optPercent(h.DailyChangePercent),
			optPercent(h.AllTimeChangePercent),
		)
	}
	fmt.Fprintf(&b, "\n**Total:** %s (USD/CAD %.4f)\n", views.FormatMoney(total, models.CAD), usdcad)
	return b.String()
}

func PortfoliosMarkdown(summaries []models.PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolios\n\n")
	fmt.Fprintln(&b, "| # | ID | Name | Value | Gain/Loss | Today | All time |")
	fmt.Fprintln(&b, "|---:|---:|:---|---:|---:|---:|---:|")
	for i, s := range summaries {
		name := cell(s.Name)
		if s.IsDefault {
			name += " (default)"
		}
		fmt.Fprintf(&b, "| %d | %d | %s | %s | %s | %s | %s |\n",
			i+1,
			s.ID,
			name,
			views.FormatMoney(s.TotalValue, models.CAD),
			views.FormatSignedMoney(s.GainLoss, models.CAD),
			views.Percent(s.DailyPercent).SignedString(),
			views.Percent(s.AllTimePercent).SignedString(),
		)
	}
	return b.String()
}

// OrderMarkdown lists portfolio ids in display order after a move.
func OrderMarkdown(order []int) string {
	ids := make([]string, len(order))
	for i, id := range order {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("Portfolio order is now: %s\n", strings.Join(ids, ", "))
}

func BudgetMarkdown(s *models.BudgetSummary, groups []views.Group[models.BudgetItem]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Budget\n\n")
	fmt.Fprintln(&b, "| | Monthly |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Dividends (expected) | %s |\n", views.FormatMoney(s.ExpectedDividendMonthlyCAD, models.CAD))
	fmt.Fprintf(&b, "| Other income | %s |\n", views.FormatMoney(s.OtherIncomeMonthly, models.CAD))
	fmt.Fprintf(&b, "| Total income | %s |\n", views.FormatMoney(s.TotalIncomeMonthly, models.CAD))
	fmt.Fprintf(&b, "| Total expenses | %s |\n", views.FormatMoney(s.TotalExpensesMonthly, models.CAD))
	fmt.Fprintf(&b, "| **Net surplus** | **%s** |\n", views.FormatSignedMoney(s.NetSurplusMonthly, models.CAD))

	for _, g := range groups {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", g.Name, views.FormatMoney(g.Total, models.CAD))
		for _, it := range g.Items {
			fmt.Fprintf(&b, "* %s: %s (%s)\n", it.Name, views.FormatMoney(it.AmountMonthly, models.CAD), it.ItemType)
		}
	}
	return b.String()
}

func TransactionsMarkdown(txns []models.Transaction, rng views.DateRange, totals views.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions (%s)\n\n", rng)
	if len(txns) == 0 {
		fmt.Fprintln(&b, "No transactions in range.")
	} else {
		fmt.Fprintln(&b, "| Date | Description | Amount |")
		fmt.Fprintln(&b, "|:---|:---|---:|")
		for _, t := range txns {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", t.Date, cell(t.Description), views.FormatSignedMoney(t.Amount, models.CAD))
		}
	}
	fmt.Fprintf(&b, "\n**Income:** %s  \n**Expenses:** %s  \n**Net:** %s\n",
		views.FormatMoney(totals.Income, models.CAD),
		views.FormatMoney(totals.Expense, models.CAD),
		views.FormatSignedMoney(totals.Net, models.CAD),
	)
	return b.String()
}

func ImportMarkdown(file string, r *models.UploadResult) string {
	return fmt.Sprintf("# Import %s\n\n* processed: %d\n* new: %d\n* skipped (duplicates): %d\n* categorized: %d\n",
		file, r.Processed, r.New, r.Skipped, r.Categorized)
}

func FXMarkdown(rate models.FXRate, stale bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**USD/CAD:** %.4f\n", rate.Rate())
	if !rate.Timestamp.IsZero() {
		fmt.Fprintf(&b, "\nas of %s\n", rate.Timestamp.Format("2006-01-02 15:04 MST"))
	}
	if stale {
		fmt.Fprintln(&b, "\n_quote unavailable, using the default rate_")
	}
	return b.String()
}

func MoversMarkdown(m views.Movers) string {
	var b strings.Builder
	section := func(title string, hs []models.Holding) {
		fmt.Fprintf(&b, "## %s\n\n", title)
		if len(hs) == 0 {
			fmt.Fprintln(&b, "None.")
			fmt.Fprintln(&b)
			return
		}
		fmt.Fprintln(&b, "| Symbol | Today |")
		fmt.Fprintln(&b, "|:---|---:|")
		for _, h := range hs {
			fmt.Fprintf(&b, "| %s | %s |\n", cell(h.Symbol), optPercent(h.DailyChangePercent))
		}
		fmt.Fprintln(&b)
	}
	fmt.Fprintf(&b, "# Top movers\n\n")
	section("Gainers", m.Gainers)
	section("Losers", m.Losers)
	return b.String()
}

// HistoryMarkdown shows the change over the period and the last few
// points of the series.
func HistoryMarkdown(p views.Period, points []models.HistoryPoint, change views.PeriodChange, tail int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# History (%s)\n\n", p)
	if len(points) == 0 {
		fmt.Fprintln(&b, "No data for this period.")
		return b.String()
	}
	fmt.Fprintf(&b, "**Change:** %s (%s)\n\n",
		views.FormatSignedMoney(change.Change, models.CAD),
		views.Percent(change.Percent).SignedString(),
	)
	if tail > 0 && len(points) > tail {
		points = points[len(points)-tail:]
	}
	fmt.Fprintln(&b, "| Time | Value | Day |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	for _, pt := range points {
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			pt.Timestamp.Format("2006-01-02 15:04"),
			views.FormatMoney(pt.TotalValue, models.CAD),
			views.Percent(pt.DailyPercent).SignedString(),
		)
	}
	return b.String()
}
