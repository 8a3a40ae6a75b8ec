package api

import (
	"net/http"

	"folio-server/src/config"
	"folio-server/src/handlers"
	"folio-server/src/middleware"
	"folio-server/src/query"
	"folio-server/src/reorder"
	"folio-server/src/ws"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Deps struct {
	Config  config.Config
	Client  *query.Client
	Reorder *reorder.Machine
	Hub     *ws.Hub
	Logger  zerolog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	c := d.Client
	secret := ""
	if d.Config.AuthEnabled() {
		secret = d.Config.JWTSecret
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware(d.Config.AllowedOrigins))
	r.Use(middleware.DemoModeMiddleware(d.Config.IsDemo))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if d.Hub != nil {
		r.Handle("/ws", d.Hub)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(d.Config))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(secret)).Group(func(r chi.Router) {
			r.Get("/dashboard", handlers.GetDashboard(c))
			r.Get("/history/intraday", handlers.GetHistory(c, false))
			r.Get("/history/daily", handlers.GetHistory(c, true))
			r.Get("/fx", handlers.GetFX(c))
			r.Get("/sectors", handlers.GetSectors(c))

			// Holdings
			r.Get("/holdings", handlers.GetHoldings(c))
			r.Post("/holdings", handlers.CreateHolding(c))
			r.Get("/holdings/allocation", handlers.GetAllocation(c))
			r.Get("/holdings/movers", handlers.GetMovers(c))
			r.Put("/holdings/{holding_id}", handlers.UpdateHolding(c))
			r.Delete("/holdings/{holding_id}", handlers.DeleteHolding(c))
			r.Patch("/holdings/{holding_id}/dividend", handlers.SetDividend(c))

			// Portfolios
			r.Get("/portfolios", handlers.GetPortfolios(c))
			r.Post("/portfolios", handlers.CreatePortfolio(c))
			r.Get("/portfolios/summary", handlers.GetPortfolioSummaries(c))
			r.Post("/portfolios/reorder", handlers.ReorderPortfolios(d.Reorder))
			r.Put("/portfolios/{portfolio_id}", handlers.UpdatePortfolio(c))
			r.Delete("/portfolios/{portfolio_id}", handlers.DeletePortfolio(c))
			r.Post("/portfolios/{portfolio_id}/move", handlers.MovePortfolio(d.Reorder))
			r.Get("/portfolios/{portfolio_id}/allocation", handlers.GetPortfolioAllocation(c))

			// Budget
			r.Get("/budget/summary", handlers.GetBudgetSummary(c))
			r.Get("/budget/items", handlers.GetBudgetItems(c))
			r.Get("/budget/items/grouped", handlers.GetGroupedBudgetItems(c))
			r.Post("/budget/items", handlers.CreateBudgetItem(c))
			r.Put("/budget/items/{item_id}", handlers.UpdateBudgetItem(c))
			r.Delete("/budget/items/{item_id}", handlers.DeleteBudgetItem(c))
			r.Get("/budget/categories", handlers.GetCategories(c))
			r.Post("/budget/categories", handlers.CreateCategory(c))
			r.Put("/budget/categories/{category_id}", handlers.UpdateCategory(c))
			r.Delete("/budget/categories/{category_id}", handlers.DeleteCategory(c))
			r.Get("/budget/pie", handlers.GetCategoryPie(c))

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(c))
			r.Get("/transactions/grouped", handlers.GetGroupedTransactions(c))
			r.Get("/transactions/summary", handlers.GetTransactionSummary(c))
			r.Post("/transactions/upload", handlers.UploadTransactions(c))
			r.Patch("/transactions/{transaction_id}", handlers.PatchTransaction(c))
			r.Get("/accounts", handlers.GetAccounts(c))

			// Cache
			r.Post("/admin/cache/clear/{family}", handlers.ClearCache(c.Store()))
		})
	})

	return r
}
