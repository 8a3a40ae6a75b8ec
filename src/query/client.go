package query

import (
	"context"
	"io"
	"sync"
	"time"

	"folio-server/src/models"

	"github.com/rs/zerolog"
)

// Backend is the subset of the REST client the query layer depends on.
type Backend interface {
	Holdings(ctx context.Context) ([]models.Holding, error)
	CreateHolding(ctx context.Context, in models.HoldingInput) (*models.Holding, error)
	UpdateHolding(ctx context.Context, id int, in models.HoldingInput) (*models.Holding, error)
	DeleteHolding(ctx context.Context, id int) error
	SetDividend(ctx context.Context, id int, in models.DividendOverride) error

	Portfolios(ctx context.Context) ([]models.Portfolio, error)
	PortfolioSummaries(ctx context.Context) ([]models.PortfolioSummary, error)
	CreatePortfolio(ctx context.Context, in models.PortfolioInput) (*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, id int, in models.PortfolioInput) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id int) error
	ReorderPortfolios(ctx context.Context, order []int) error

	IntradayHistory(ctx context.Context) ([]models.HistoryPoint, error)
	DailyHistory(ctx context.Context) ([]models.HistoryPoint, error)
	SectorAllocation(ctx context.Context) (*models.SectorAllocation, error)
	FXRate(ctx context.Context) (*models.FXRate, error)

	BudgetSummary(ctx context.Context) (*models.BudgetSummary, error)
	BudgetItems(ctx context.Context) ([]models.BudgetItem, error)
	CreateBudgetItem(ctx context.Context, in models.BudgetItemInput) (*models.BudgetItem, error)
	UpdateBudgetItem(ctx context.Context, id int, in models.BudgetItemInput) (*models.BudgetItem, error)
	DeleteBudgetItem(ctx context.Context, id int) error
	Categories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int) error

	Transactions(ctx context.Context) ([]models.Transaction, error)
	TransactionSummary(ctx context.Context) (*models.TransactionSummary, error)
	PatchTransaction(ctx context.Context, id int, in models.TransactionPatch) error
	UploadTransactions(ctx context.Context, filename string, csv io.Reader, accountID *int) (*models.UploadResult, error)
	Accounts(ctx context.Context) ([]models.Account, error)
}

type StaleTimes struct {
	Market       time.Duration
	FX           time.Duration
	Budget       time.Duration
	Transactions time.Duration
}

// Client exposes one query per backend read and one method per mutation.
// Every mutation invalidates the families it changes once it succeeds.
type Client struct {
	store *Store
	api   Backend
	log   zerolog.Logger

	Holdings           *Query[[]models.Holding]
	Portfolios         *Query[[]models.Portfolio]
	Summaries          *Query[[]models.PortfolioSummary]
	IntradayHistory    *Query[[]models.HistoryPoint]
	DailyHistory       *Query[[]models.HistoryPoint]
	Sectors            *Query[*models.SectorAllocation]
	FX                 *Query[*models.FXRate]
	BudgetSummary      *Query[*models.BudgetSummary]
	BudgetItems        *Query[[]models.BudgetItem]
	Categories         *Query[[]models.Category]
	Transactions       *Query[[]models.Transaction]
	TransactionSummary *Query[*models.TransactionSummary]
	Accounts           *Query[[]models.Account]
}

func NewClient(store *Store, api Backend, stale StaleTimes, logger zerolog.Logger) *Client {
	c := &Client{store: store, api: api, log: logger.With().Str("component", "client").Logger()}

	c.Holdings = New(store, KeyHoldings, stale.Market, api.Holdings, FamilyHoldings)
	c.Portfolios = New(store, KeyPortfolios, stale.Market, api.Portfolios, FamilyPortfolios)
	c.Summaries = New(store, KeyPortfolioSummaries, stale.Market, api.PortfolioSummaries, FamilyPortfolios, FamilyHoldings)
	c.IntradayHistory = New(store, KeyIntradayHistory, stale.Market, api.IntradayHistory, FamilyHistory, FamilyHoldings)
	c.DailyHistory = New(store, KeyDailyHistory, stale.Market, api.DailyHistory, FamilyHistory, FamilyHoldings)
	c.Sectors = New(store, KeySectors, stale.Market, api.SectorAllocation, FamilySectors, FamilyHoldings)
	c.FX = New(store, KeyFX, stale.FX, api.FXRate, FamilyFX)
	c.BudgetSummary = New(store, KeyBudgetSummary, stale.Market, api.BudgetSummary, FamilyBudget, FamilyHoldings)
	c.BudgetItems = New(store, KeyBudgetItems, stale.Budget, api.BudgetItems, FamilyBudget)
	c.Categories = New(store, KeyCategories, stale.Budget, api.Categories, FamilyCategories)
	c.Transactions = New(store, KeyTransactions, stale.Transactions, api.Transactions, FamilyTransactions)
	c.TransactionSummary = New(store, KeyTransactionSummary, stale.Transactions, api.TransactionSummary, FamilyTransactions, FamilyCategories)
	c.Accounts = New(store, KeyAccounts, stale.Budget, api.Accounts, FamilyAccounts)
	return c
}

func (c *Client) Store() *Store {
	return c.store
}

// marketKeys are refreshed on every tick of the background refresher.
var marketKeys = []string{
	KeyHoldings, KeyPortfolioSummaries, KeyIntradayHistory, KeyDailyHistory, KeySectors, KeyBudgetSummary,
}

// StartRefresher re-fetches market data every interval until ctx ends or
// the returned cancel is called.
func (c *Client) StartRefresher(ctx context.Context, interval time.Duration) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.store.Refresh(marketKeys...)
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

// Dashboard is everything the landing page shows, read in parallel.
type Dashboard struct {
	Holdings  Result[[]models.Holding]
	Summaries Result[[]models.PortfolioSummary]
	Intraday  Result[[]models.HistoryPoint]
	Sectors   Result[*models.SectorAllocation]
	FX        Result[*models.FXRate]
}

func (c *Client) Dashboard(ctx context.Context) Dashboard {
	var d Dashboard
	var wg sync.WaitGroup
	read := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	// Each section keeps its own error; one failing read must not cut
	// the others short.
	read(func() { d.Holdings = c.Holdings.Get(ctx) })
	read(func() { d.Summaries = c.Summaries.Get(ctx) })
	read(func() { d.Intraday = c.IntradayHistory.Get(ctx) })
	read(func() { d.Sectors = c.Sectors.Get(ctx) })
	read(func() { d.FX = c.FX.Get(ctx) })
	wg.Wait()
	return d
}

// USDCAD returns the cached FX quote, or the default when none is known.
func (c *Client) USDCAD(ctx context.Context) float64 {
	res := c.FX.Get(ctx)
	if !res.HasData || res.Data == nil {
		return models.DefaultUSDCAD
	}
	return res.Data.Rate()
}

func (c *Client) invalidate(families []Family) {
	c.store.Invalidate(families...)
}
