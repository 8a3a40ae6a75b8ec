package backend

import (
	"context"
	"net/http"

	"folio-server/src/models"
)

func (c *Client) Portfolios(ctx context.Context) ([]models.Portfolio, error) {
	return getList[models.Portfolio](ctx, c, "/portfolios/")
}

// PortfolioSummaries returns one card per portfolio in display order.
func (c *Client) PortfolioSummaries(ctx context.Context) ([]models.PortfolioSummary, error) {
	return getList[models.PortfolioSummary](ctx, c, "/portfolios/summary")
}

func (c *Client) CreatePortfolio(ctx context.Context, in models.PortfolioInput) (*models.Portfolio, error) {
	return sendOne[models.Portfolio](ctx, c, http.MethodPost, "/portfolios/", in)
}

func (c *Client) UpdatePortfolio(ctx context.Context, id int, in models.PortfolioInput) (*models.Portfolio, error) {
	return sendOne[models.Portfolio](ctx, c, http.MethodPut, idPath("/portfolios", id), in)
}

func (c *Client) DeletePortfolio(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, idPath("/portfolios", id), nil, nil)
}

// ReorderPortfolios persists a new display order. order must be a
// permutation of the current portfolio ids.
func (c *Client) ReorderPortfolios(ctx context.Context, order []int) error {
	return c.send(ctx, http.MethodPost, "/portfolios/reorder", models.ReorderRequest{Order: order}, nil)
}
