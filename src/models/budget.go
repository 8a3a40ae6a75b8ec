package models

import "strings"

type Flow string

const (
	Income  Flow = "income"
	Expense Flow = "expense"
)

func (f Flow) Valid() bool {
	return f == Income || f == Expense
}

type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     Flow   `json:"type"`
	IsCustom bool   `json:"is_custom"`
}

func (c *Category) Validate() error {
	if c.ID <= 0 {
		return invalidf("category id %d", c.ID)
	}
	if !c.Type.Valid() {
		return invalidf("category %d: unknown type %q", c.ID, c.Type)
	}
	return nil
}

type CategoryInput struct {
	Name string `json:"name"`
	Type Flow   `json:"type"`
}

func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("category name is required")
	}
	if !in.Type.Valid() {
		return invalidf("category type must be income or expense, got %q", in.Type)
	}
	return nil
}

// BudgetItem is a recurring monthly amount filed under a category of the
// same flow.
type BudgetItem struct {
	ID            int     `json:"id"`
	ItemType      Flow    `json:"item_type"`
	Name          string  `json:"name"`
	AmountMonthly float64 `json:"amount_monthly"`
	CategoryID    int     `json:"category_id"`
}

func (b *BudgetItem) Validate() error {
	if b.ID <= 0 {
		return invalidf("budget item id %d", b.ID)
	}
	if !b.ItemType.Valid() {
		return invalidf("budget item %d: unknown item type %q", b.ID, b.ItemType)
	}
	if !finite(b.AmountMonthly) {
		return invalidf("budget item %d: non-finite amount", b.ID)
	}
	return nil
}

type BudgetItemInput struct {
	ItemType      Flow    `json:"item_type"`
	Name          string  `json:"name"`
	AmountMonthly float64 `json:"amount_monthly"`
	CategoryID    int     `json:"category_id"`
}

func (in *BudgetItemInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("budget item name is required")
	}
	if !in.ItemType.Valid() {
		return invalidf("item type must be income or expense, got %q", in.ItemType)
	}
	if !finite(in.AmountMonthly) || in.AmountMonthly < 0 {
		return invalidf("monthly amount must not be negative")
	}
	if in.CategoryID <= 0 {
		return invalidf("category is required")
	}
	return nil
}

// CheckCategory verifies the item's category exists and shares its flow.
func (in BudgetItemInput) CheckCategory(categories []Category) error {
	for _, c := range categories {
		if c.ID == in.CategoryID {
			if c.Type != in.ItemType {
				return invalidf("category %q is %s, item is %s", c.Name, c.Type, in.ItemType)
			}
			return nil
		}
	}
	return invalidf("unknown category %d", in.CategoryID)
}

type DividendLine struct {
	HoldingID              int      `json:"holding_id"`
	Symbol                 string   `json:"symbol"`
	Quantity               float64  `json:"quantity"`
	DividendAnnualPerShare *float64 `json:"dividend_annual_per_share"`
	AnnualDividendsCAD     float64  `json:"annual_dividends_cad"`
	MonthlyDividendsCAD    float64  `json:"monthly_dividends_cad"`
	IsManual               bool     `json:"is_manual"`
}

type BudgetSummary struct {
	ExpectedDividendMonthlyCAD float64        `json:"expected_dividend_income_monthly_cad"`
	ExpectedDividendAnnualCAD  float64        `json:"expected_dividend_income_annual_cad"`
	DividendBreakdown          []DividendLine `json:"dividend_breakdown"`
	OtherIncomeMonthly         float64        `json:"other_income_monthly"`
	TotalExpensesMonthly       float64        `json:"total_expenses_monthly"`
	TotalIncomeMonthly         float64        `json:"total_income_monthly"`
	NetSurplusMonthly          float64        `json:"net_surplus_monthly"`
	IncomeItems                []BudgetItem   `json:"income_items"`
	ExpenseItems               []BudgetItem   `json:"expense_items"`
}

func (s *BudgetSummary) Validate() error {
	for _, f := range []float64{s.ExpectedDividendMonthlyCAD, s.ExpectedDividendAnnualCAD,
		s.OtherIncomeMonthly, s.TotalExpensesMonthly, s.TotalIncomeMonthly, s.NetSurplusMonthly} {
		if !finite(f) {
			return invalidf("budget summary: non-finite total")
		}
	}
	if err := ValidateAll(s.IncomeItems); err != nil {
		return err
	}
	return ValidateAll(s.ExpenseItems)
}
