package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"folio-server/src/models"

	"github.com/PaesslerAG/jsonpath"
)

func (c *Client) IntradayHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	return getList[models.HistoryPoint](ctx, c, "/portfolios/global-history")
}

func (c *Client) DailyHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	return getList[models.HistoryPoint](ctx, c, "/portfolios/global/history/daily")
}

func (c *Client) SectorAllocation(ctx context.Context) (*models.SectorAllocation, error) {
	return getOne[models.SectorAllocation](ctx, c, "/portfolios/global-sector-allocation")
}

const (
	fxRatePath      = "$.usdcad_rate"
	fxTimestampPath = "$.timestamp"
)

// FXRate reads the current USD/CAD quote. The endpoint's envelope has moved
// around between backend versions, so only the two fields are extracted.
func (c *Client) FXRate(ctx context.Context) (*models.FXRate, error) {
	const path = "/fx/current"
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(raw, &jobj); err != nil {
		return nil, invalidPayload(http.MethodGet, path, err)
	}

	jval, err := jsonpath.Get(fxRatePath, jobj)
	if err != nil {
		return nil, invalidPayload(http.MethodGet, path, fmt.Errorf("%s: %w", fxRatePath, err))
	}
	rate, ok := jval.(float64)
	if !ok || rate <= 0 {
		return nil, invalidPayload(http.MethodGet, path, fmt.Errorf("%s: not a positive number: %v", fxRatePath, jval))
	}

	fx := &models.FXRate{USDCAD: rate}
	if ts, err := jsonpath.Get(fxTimestampPath, jobj); err == nil {
		if s, ok := ts.(string); ok {
			if parsed, err := models.ParseTimestamp(s); err == nil {
				fx.Timestamp = parsed
			}
		}
	}
	return fx, nil
}
