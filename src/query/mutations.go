package query

import (
	"context"
	"io"

	"folio-server/src/models"
)

func (c *Client) CreateHolding(ctx context.Context, in models.HoldingInput) (*models.Holding, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	h, err := c.api.CreateHolding(ctx, in)
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("holding_id", h.ID).Str("symbol", h.Symbol).Msg("created holding")
	c.invalidate(HoldingMutation)
	return h, nil
}

func (c *Client) UpdateHolding(ctx context.Context, id int, in models.HoldingInput) (*models.Holding, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	h, err := c.api.UpdateHolding(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("holding_id", id).Msg("updated holding")
	c.invalidate(HoldingMutation)
	return h, nil
}

func (c *Client) DeleteHolding(ctx context.Context, id int) error {
	if err := c.api.DeleteHolding(ctx, id); err != nil {
		return err
	}
	c.log.Info().Int("holding_id", id).Msg("deleted holding")
	c.invalidate(HoldingMutation)
	return nil
}

func (c *Client) SetDividend(ctx context.Context, id int, in models.DividendOverride) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := c.api.SetDividend(ctx, id, in); err != nil {
		return err
	}
	c.log.Info().Int("holding_id", id).Bool("cleared", in.DividendAnnualPerShare == nil).Msg("set dividend override")
	c.invalidate(DividendMutation)
	return nil
}

func (c *Client) CreatePortfolio(ctx context.Context, in models.PortfolioInput) (*models.Portfolio, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := c.api.CreatePortfolio(ctx, in)
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("portfolio_id", p.ID).Msg("created portfolio")
	c.invalidate(PortfolioMutation)
	return p, nil
}

func (c *Client) UpdatePortfolio(ctx context.Context, id int, in models.PortfolioInput) (*models.Portfolio, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := c.api.UpdatePortfolio(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(PortfolioMutation)
	return p, nil
}

func (c *Client) DeletePortfolio(ctx context.Context, id int) error {
	if err := c.api.DeletePortfolio(ctx, id); err != nil {
		return err
	}
	c.log.Info().Int("portfolio_id", id).Msg("deleted portfolio")
	c.invalidate(PortfolioMutation)
	return nil
}

func (c *Client) CreateBudgetItem(ctx context.Context, in models.BudgetItemInput) (*models.BudgetItem, error) {
	if err := c.checkBudgetItem(ctx, &in); err != nil {
		return nil, err
	}
	item, err := c.api.CreateBudgetItem(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(BudgetItemMutation)
	return item, nil
}

func (c *Client) UpdateBudgetItem(ctx context.Context, id int, in models.BudgetItemInput) (*models.BudgetItem, error) {
	if err := c.checkBudgetItem(ctx, &in); err != nil {
		return nil, err
	}
	item, err := c.api.UpdateBudgetItem(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(BudgetItemMutation)
	return item, nil
}

// checkBudgetItem validates the input and, when categories are cached,
// that the chosen category has the item's flow.
func (c *Client) checkBudgetItem(ctx context.Context, in *models.BudgetItemInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	cats := c.Categories.Get(ctx)
	if !cats.HasData {
		return nil
	}
	return in.CheckCategory(cats.Data)
}

func (c *Client) DeleteBudgetItem(ctx context.Context, id int) error {
	if err := c.api.DeleteBudgetItem(ctx, id); err != nil {
		return err
	}
	c.invalidate(BudgetItemMutation)
	return nil
}

func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	cat, err := c.api.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(CategoryMutation)
	return cat, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int, in models.CategoryInput) (*models.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	cat, err := c.api.UpdateCategory(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(CategoryMutation)
	return cat, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	if err := c.api.DeleteCategory(ctx, id); err != nil {
		return err
	}
	c.invalidate(CategoryMutation)
	return nil
}

func (c *Client) PatchTransaction(ctx context.Context, id int, in models.TransactionPatch) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := c.api.PatchTransaction(ctx, id, in); err != nil {
		return err
	}
	c.invalidate(TransactionMutation)
	return nil
}

func (c *Client) UploadTransactions(ctx context.Context, filename string, csv io.Reader, accountID *int) (*models.UploadResult, error) {
	res, err := c.api.UploadTransactions(ctx, filename, csv, accountID)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("file", filename).Int("new", res.New).Int("skipped", res.Skipped).Msg("imported transactions")
	c.invalidate(UploadMutation)
	return res, nil
}
