package backend

import (
	"context"
	"net/http"

	"folio-server/src/models"
)

func (c *Client) Holdings(ctx context.Context) ([]models.Holding, error) {
	return getList[models.Holding](ctx, c, "/holdings/")
}

func (c *Client) CreateHolding(ctx context.Context, in models.HoldingInput) (*models.Holding, error) {
	return sendOne[models.Holding](ctx, c, http.MethodPost, "/holdings/", in)
}

func (c *Client) UpdateHolding(ctx context.Context, id int, in models.HoldingInput) (*models.Holding, error) {
	return sendOne[models.Holding](ctx, c, http.MethodPut, idPath("/holdings", id), in)
}

func (c *Client) DeleteHolding(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, idPath("/holdings", id), nil, nil)
}

// SetDividend sets or, with a nil amount, clears a manual dividend override.
func (c *Client) SetDividend(ctx context.Context, id int, in models.DividendOverride) error {
	return c.send(ctx, http.MethodPatch, idPath("/holdings", id)+"/dividend", in, nil)
}
