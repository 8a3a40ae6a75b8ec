package query

const (
	FamilyHoldings     Family = "holdings"
	FamilyPortfolios   Family = "portfolios"
	FamilyHistory      Family = "history"
	FamilySectors      Family = "sectors"
	FamilyFX           Family = "fx"
	FamilyBudget       Family = "budget"
	FamilyCategories   Family = "categories"
	FamilyTransactions Family = "transactions"
	FamilyAccounts     Family = "accounts"
)

const (
	KeyHoldings           = "holdings"
	KeyPortfolios         = "portfolios"
	KeyPortfolioSummaries = "portfolios/summary"
	KeyIntradayHistory    = "history/intraday"
	KeyDailyHistory       = "history/daily"
	KeySectors            = "sectors"
	KeyFX                 = "fx/usdcad"
	KeyBudgetSummary      = "budget/summary"
	KeyBudgetItems        = "budget/items"
	KeyCategories         = "budget/categories"
	KeyTransactions       = "transactions"
	KeyTransactionSummary = "transactions/summary"
	KeyAccounts           = "accounts"
)

// Families touched by each mutation.
var (
	HoldingMutation     = []Family{FamilyHoldings, FamilyPortfolios, FamilyBudget}
	DividendMutation    = []Family{FamilyHoldings, FamilyBudget}
	PortfolioMutation   = []Family{FamilyPortfolios, FamilyHoldings}
	ReorderMutation     = []Family{FamilyPortfolios}
	BudgetItemMutation  = []Family{FamilyBudget}
	CategoryMutation    = []Family{FamilyCategories, FamilyBudget, FamilyTransactions}
	TransactionMutation = []Family{FamilyTransactions}
	UploadMutation      = []Family{FamilyTransactions}
)

// ParseFamily maps an external name onto a known family.
func ParseFamily(name string) (Family, bool) {
	switch f := Family(name); f {
	case FamilyHoldings, FamilyPortfolios, FamilyHistory, FamilySectors, FamilyFX,
		FamilyBudget, FamilyCategories, FamilyTransactions, FamilyAccounts:
		return f, true
	}
	return "", false
}
