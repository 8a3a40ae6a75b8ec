package models

import "strings"

// Transaction amounts are signed: positive is income, negative is spending.
type Transaction struct {
	ID          int     `json:"id"`
	Date        Date    `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CategoryID  *int    `json:"category_id"`
	AccountID   *int    `json:"account_id"`
}

func (t *Transaction) Validate() error {
	if t.ID <= 0 {
		return invalidf("transaction id %d", t.ID)
	}
	if t.Date.IsZero() {
		return invalidf("transaction %d: missing date", t.ID)
	}
	if !finite(t.Amount) {
		return invalidf("transaction %d: non-finite amount", t.ID)
	}
	return nil
}

func (t Transaction) Flow() Flow {
	if t.Amount >= 0 {
		return Income
	}
	return Expense
}

// TransactionPatch reassigns a transaction. Nil fields are left untouched.
type TransactionPatch struct {
	CategoryID *int `json:"category_id,omitempty"`
	AccountID  *int `json:"account_id,omitempty"`
}

func (p TransactionPatch) Validate() error {
	if p.CategoryID == nil && p.AccountID == nil {
		return invalidf("nothing to update")
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return invalidf("category id %d", *p.CategoryID)
	}
	if p.AccountID != nil && *p.AccountID <= 0 {
		return invalidf("account id %d", *p.AccountID)
	}
	return nil
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type TransactionSummary struct {
	Income  []CategoryTotal `json:"income"`
	Expense []CategoryTotal `json:"expense"`
}

func (s *TransactionSummary) Validate() error {
	for _, l := range [][]CategoryTotal{s.Income, s.Expense} {
		for _, c := range l {
			if strings.TrimSpace(c.Category) == "" || !finite(c.Total) {
				return invalidf("transaction summary: bad row %+v", c)
			}
		}
	}
	return nil
}

// UploadResult reports the outcome of a CSV import.
type UploadResult struct {
	Processed   int `json:"processed"`
	New         int `json:"new"`
	Skipped     int `json:"skipped"`
	Categorized int `json:"categorized"`
}
