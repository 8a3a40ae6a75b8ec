package backend

import (
	"context"
	"net/http"

	"folio-server/src/models"
)

func (c *Client) BudgetSummary(ctx context.Context) (*models.BudgetSummary, error) {
	return getOne[models.BudgetSummary](ctx, c, "/budget/summary")
}

func (c *Client) BudgetItems(ctx context.Context) ([]models.BudgetItem, error) {
	return getList[models.BudgetItem](ctx, c, "/budget/items")
}

func (c *Client) CreateBudgetItem(ctx context.Context, in models.BudgetItemInput) (*models.BudgetItem, error) {
	return sendOne[models.BudgetItem](ctx, c, http.MethodPost, "/budget/items", in)
}

func (c *Client) UpdateBudgetItem(ctx context.Context, id int, in models.BudgetItemInput) (*models.BudgetItem, error) {
	return sendOne[models.BudgetItem](ctx, c, http.MethodPut, idPath("/budget/items", id), in)
}

func (c *Client) DeleteBudgetItem(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, idPath("/budget/items", id), nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return getList[models.Category](ctx, c, "/budget/categories")
}

func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	return sendOne[models.Category](ctx, c, http.MethodPost, "/budget/categories", in)
}

func (c *Client) UpdateCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error) {
	return sendOne[models.Category](ctx, c, http.MethodPut, idPath("/budget/categories", id), in)
}

func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, idPath("/budget/categories", id), nil, nil)
}
