package views

import (
	"strings"

	"folio-server/src/models"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows a transaction list the way the transactions
// page does: date range, then account, then description search.
type TransactionFilter struct {
	Range     DateRange
	AccountID *int
	Query     string
}

func FilterTransactions(txns []models.Transaction, f TransactionFilter) []models.Transaction {
	out := FilterByDate(txns, f.Range, func(t models.Transaction) models.Date { return t.Date })
	if f.AccountID != nil {
		kept := out[:0]
		for _, t := range out {
			if t.AccountID != nil && *t.AccountID == *f.AccountID {
				kept = append(kept, t)
			}
		}
		out = kept
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		kept := out[:0]
		for _, t := range out {
			if strings.Contains(strings.ToLower(t.Description), q) {
				kept = append(kept, t)
			}
		}
		out = kept
	}
	return out
}

type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// RangeTotals sums income and spending. Expense is reported as a positive
// amount.
func RangeTotals(txns []models.Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txns {
		amt := decimal.NewFromFloat(t.Amount)
		if amt.IsPositive() {
			income = income.Add(amt)
		} else {
			expense = expense.Add(amt.Abs())
		}
	}
	return Totals{
		Income:  income.InexactFloat64(),
		Expense: expense.InexactFloat64(),
		Net:     income.Sub(expense).InexactFloat64(),
	}
}
