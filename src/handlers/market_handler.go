package handlers

import (
	"net/http"
	"time"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/views"
)

type dashboardResponse struct {
	Holdings  readResponse  `json:"holdings"`
	Summaries readResponse  `json:"summaries"`
	Intraday  readResponse  `json:"intraday"`
	Sectors   readResponse  `json:"sectors"`
	FX        readResponse  `json:"fx"`
	USDCAD    float64       `json:"usdcad"`
	Movers    *views.Movers `json:"movers,omitempty"`
}

// GetDashboard returns every landing-page section. Sections fail
// independently, so the response is always 200.
func GetDashboard(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := c.Dashboard(r.Context())
		resp := dashboardResponse{
			Holdings:  envelope(d.Holdings),
			Summaries: envelope(d.Summaries),
			Intraday:  envelope(d.Intraday),
			Sectors:   envelope(d.Sectors),
			FX:        envelope(d.FX),
			USDCAD:    models.DefaultUSDCAD,
		}
		if d.FX.HasData && d.FX.Data != nil {
			resp.USDCAD = d.FX.Data.Rate()
		}
		if d.Holdings.HasData {
			movers := views.TopMovers(d.Holdings.Data, views.MoversLimit)
			resp.Movers = &movers
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type historyResponse struct {
	Period views.Period          `json:"period"`
	Points []models.HistoryPoint `json:"points"`
	Latest *models.HistoryPoint  `json:"latest,omitempty"`
	Change views.PeriodChange    `json:"change"`
}

func historyView(points []models.HistoryPoint, p views.Period, now time.Time) (historyResponse, error) {
	trimmed, err := views.TrimHistory(points, p, now)
	if err != nil {
		return historyResponse{}, err
	}
	resp := historyResponse{Period: p, Points: trimmed, Change: views.ChangeOver(trimmed)}
	if latest, ok := views.Latest(trimmed); ok {
		resp.Latest = &latest
	}
	return resp, nil
}

// GetHistory serves the intraday or daily series, trimmed to ?period=.
func GetHistory(c *query.Client, daily bool) http.HandlerFunc {
	q := c.IntradayHistory
	fallback := views.PeriodAll
	if daily {
		q = c.DailyHistory
		fallback = views.Period1M
	}

	return func(w http.ResponseWriter, r *http.Request) {
		p := views.Period(r.URL.Query().Get("period"))
		if p == "" {
			p = fallback
		}
		if _, err := p.Start(time.Now()); err != nil {
			writeError(w, r, err)
			return
		}

		now := time.Now()
		res := q.Get(r.Context())
		writeRead(w, r, derive(res, func(points []models.HistoryPoint) historyResponse {
			// period was checked above, so this cannot fail
			resp, _ := historyView(points, p, now)
			return resp
		}))
	}
}

// GetFX falls back to the default rate when no quote has ever been read.
func GetFX(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := c.FX.Get(r.Context())
		if !res.HasData || res.Data == nil {
			resp := readResponse{
				Data:  models.FXRate{USDCAD: models.DefaultUSDCAD},
				Stale: true,
				Error: errUnavailable.Error(),
			}
			if res.Err != nil {
				resp.Error = res.Err.Error()
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeRead(w, r, res)
	}
}

func GetSectors(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.Sectors.Get(r.Context()))
	}
}
