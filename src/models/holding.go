package models

import "strings"

type AssetType string

const (
	AssetStock AssetType = "stock"
	AssetETF   AssetType = "etf"
)

func (t AssetType) Valid() bool {
	return t == AssetStock || t == AssetETF
}

type Currency string

const (
	CAD Currency = "CAD"
	USD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == CAD || c == USD
}

// Underlying is a constituent of an ETF. Allocations are informational and
// need not add up to 100.
type Underlying struct {
	ID                int      `json:"id,omitempty"`
	Symbol            string   `json:"symbol"`
	AllocationPercent *float64 `json:"allocation_percent,omitempty"`
}

type Holding struct {
	ID                     int          `json:"id"`
	Symbol                 string       `json:"symbol"`
	Type                   AssetType    `json:"type"`
	Quantity               float64      `json:"quantity"`
	PurchasePrice          float64      `json:"purchase_price"`
	CurrentPrice           *float64     `json:"current_price"`
	MarketValue            *float64     `json:"market_value"`
	DailyChange            *float64     `json:"daily_change"`
	DailyChangePercent     *float64     `json:"daily_change_percent"`
	AllTimeGainLoss        *float64     `json:"all_time_gain_loss"`
	AllTimeChangePercent   *float64     `json:"all_time_change_percent"`
	PortfolioID            int          `json:"portfolio_id"`
	Currency               Currency     `json:"currency"`
	DividendAnnualPerShare *float64     `json:"dividend_annual_per_share"`
	IsDividendManual       bool         `json:"is_dividend_manual"`
	Underlyings            []Underlying `json:"underlyings"`
}

func (h *Holding) Validate() error {
	if h.ID <= 0 {
		return invalidf("holding id %d", h.ID)
	}
	if strings.TrimSpace(h.Symbol) == "" {
		return invalidf("holding %d: empty symbol", h.ID)
	}
	if !h.Type.Valid() {
		return invalidf("holding %d: unknown type %q", h.ID, h.Type)
	}
	if h.Currency == "" {
		h.Currency = CAD
	}
	if !h.Currency.Valid() {
		return invalidf("holding %d: unknown currency %q", h.ID, h.Currency)
	}
	if !finite(h.Quantity) || !finite(h.PurchasePrice) {
		return invalidf("holding %d: non-finite quantity or price", h.ID)
	}
	for _, f := range []*float64{h.CurrentPrice, h.MarketValue, h.DailyChange, h.DailyChangePercent,
		h.AllTimeGainLoss, h.AllTimeChangePercent, h.DividendAnnualPerShare} {
		if !finitePtr(f) {
			return invalidf("holding %d: non-finite market field", h.ID)
		}
	}
	return nil
}

// Value is the holding's market value, falling back to quantity times the
// best known price when the backend has no quote yet.
func (h Holding) Value() float64 {
	switch {
	case h.MarketValue != nil:
		return *h.MarketValue
	case h.CurrentPrice != nil:
		return h.Quantity * *h.CurrentPrice
	default:
		return h.Quantity * h.PurchasePrice
	}
}

func (h Holding) CostBasis() float64 {
	return h.Quantity * h.PurchasePrice
}

type UnderlyingInput struct {
	Symbol string `json:"symbol"`
}

// HoldingInput is the body of a create or update.
type HoldingInput struct {
	Symbol        string            `json:"symbol"`
	Type          AssetType         `json:"type"`
	Quantity      float64           `json:"quantity"`
	PurchasePrice float64           `json:"purchase_price"`
	PortfolioID   *int              `json:"portfolio_id,omitempty"`
	Currency      Currency          `json:"currency,omitempty"`
	Underlyings   []UnderlyingInput `json:"underlyings"`
}

// Normalize upper-cases symbols and drops underlyings from plain stocks.
func (in *HoldingInput) Normalize() {
	in.Symbol = strings.ToUpper(strings.TrimSpace(in.Symbol))
	if in.Type != AssetETF {
		in.Underlyings = []UnderlyingInput{}
		return
	}
	out := in.Underlyings[:0]
	for _, u := range in.Underlyings {
		if s := strings.ToUpper(strings.TrimSpace(u.Symbol)); s != "" {
			out = append(out, UnderlyingInput{Symbol: s})
		}
	}
	in.Underlyings = out
}

func (in HoldingInput) Validate() error {
	if in.Symbol == "" {
		return invalidf("symbol is required")
	}
	if !in.Type.Valid() {
		return invalidf("type must be stock or etf, got %q", in.Type)
	}
	if in.Currency != "" && !in.Currency.Valid() {
		return invalidf("currency must be CAD or USD, got %q", in.Currency)
	}
	if !finite(in.Quantity) || in.Quantity <= 0 {
		return invalidf("quantity must be positive")
	}
	if !finite(in.PurchasePrice) || in.PurchasePrice < 0 {
		return invalidf("purchase price must not be negative")
	}
	if in.PortfolioID != nil && *in.PortfolioID <= 0 {
		return invalidf("portfolio id %d", *in.PortfolioID)
	}
	return nil
}

// DividendOverride sets a manual annual dividend per share. A nil value
// clears the override and the backend reverts to provider data.
type DividendOverride struct {
	DividendAnnualPerShare *float64 `json:"dividend_annual_per_share"`
}

func (d DividendOverride) Validate() error {
	if d.DividendAnnualPerShare == nil {
		return nil
	}
	if v := *d.DividendAnnualPerShare; !finite(v) || v < 0 {
		return invalidf("dividend must be a non-negative number")
	}
	return nil
}
