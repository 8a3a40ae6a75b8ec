package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestParseDateTruncatesTimestamps(t *testing.T) {
	d, err := ParseDate("2024-03-15T10:30:00Z")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != NewDate(2024, time.March, 15) {
		t.Fatalf("ParseDate = %v, want 2024-03-15", d)
	}
	if _, err := ParseDate("15/03/2024"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDateJSONNull(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.D.IsZero() {
		t.Fatalf("D = %v, want zero", v.D)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"d":null}` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-03-15T14:30:00Z",
		"2024-03-15T14:30:00",
		"2024-03-15 14:30:00",
		"2024-03-15T14:30:00.000000",
	} {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", s, err)
		}
		if !ts.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", s, ts.Time, want)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCheckPermutation(t *testing.T) {
	current := []int{1, 2, 3}
	tests := []struct {
		name  string
		order []int
		ok    bool
	}{
		{"same", []int{1, 2, 3}, true},
		{"reversed", []int{3, 2, 1}, true},
		{"short", []int{1, 2}, false},
		{"duplicate", []int{1, 1, 2}, false},
		{"unknown", []int{1, 2, 4}, false},
	}
	for _, tt := range tests {
		err := CheckPermutation(current, tt.order)
		if tt.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err = %v, want ErrInvalid", tt.name, err)
		}
	}
}

func TestHoldingInputNormalize(t *testing.T) {
	in := HoldingInput{
		Symbol:      "  vfv.to ",
		Type:        AssetETF,
		Quantity:    1,
		Underlyings: []UnderlyingInput{{Symbol: "aapl"}, {Symbol: "  "}, {Symbol: "msft"}},
	}
	in.Normalize()
	if in.Symbol != "VFV.TO" {
		t.Fatalf("Symbol = %q, want VFV.TO", in.Symbol)
	}
	if len(in.Underlyings) != 2 || in.Underlyings[0].Symbol != "AAPL" || in.Underlyings[1].Symbol != "MSFT" {
		t.Fatalf("Underlyings = %+v", in.Underlyings)
	}

	stock := HoldingInput{Symbol: "aapl", Type: AssetStock, Underlyings: []UnderlyingInput{{Symbol: "x"}}}
	stock.Normalize()
	if len(stock.Underlyings) != 0 {
		t.Fatalf("stock kept underlyings: %+v", stock.Underlyings)
	}
}

func TestHoldingInputValidate(t *testing.T) {
	zero := 0
	tests := []struct {
		name string
		in   HoldingInput
		ok   bool
	}{
		{"valid", HoldingInput{Symbol: "AAPL", Type: AssetStock, Quantity: 1, PurchasePrice: 10}, true},
		{"no symbol", HoldingInput{Type: AssetStock, Quantity: 1}, false},
		{"bad type", HoldingInput{Symbol: "AAPL", Type: "bond", Quantity: 1}, false},
		{"zero quantity", HoldingInput{Symbol: "AAPL", Type: AssetStock}, false},
		{"nan price", HoldingInput{Symbol: "AAPL", Type: AssetStock, Quantity: 1, PurchasePrice: math.NaN()}, false},
		{"bad currency", HoldingInput{Symbol: "AAPL", Type: AssetStock, Quantity: 1, Currency: "EUR"}, false},
		{"bad portfolio", HoldingInput{Symbol: "AAPL", Type: AssetStock, Quantity: 1, PortfolioID: &zero}, false},
	}
	for _, tt := range tests {
		err := tt.in.Validate()
		if tt.ok != (err == nil) {
			t.Fatalf("%s: err = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestHoldingValue(t *testing.T) {
	price, mv := 12.0, 500.0
	h := Holding{Quantity: 10, PurchasePrice: 8}
	if got := h.Value(); got != 80 {
		t.Fatalf("Value() = %v, want 80 (cost basis fallback)", got)
	}
	h.CurrentPrice = &price
	if got := h.Value(); got != 120 {
		t.Fatalf("Value() = %v, want 120", got)
	}
	h.MarketValue = &mv
	if got := h.Value(); got != 500 {
		t.Fatalf("Value() = %v, want 500", got)
	}
}

func TestBudgetItemCheckCategory(t *testing.T) {
	categories := []Category{
		{ID: 1, Name: "Salary", Type: Income},
		{ID: 2, Name: "Rent", Type: Expense},
	}
	in := BudgetItemInput{Name: "Apartment", ItemType: Expense, AmountMonthly: 1500, CategoryID: 2}
	if err := in.CheckCategory(categories); err != nil {
		t.Fatalf("CheckCategory: %v", err)
	}
	in.CategoryID = 1
	if err := in.CheckCategory(categories); !errors.Is(err, ErrInvalid) {
		t.Fatalf("flow mismatch err = %v, want ErrInvalid", err)
	}
	in.CategoryID = 9
	if err := in.CheckCategory(categories); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown category err = %v, want ErrInvalid", err)
	}
}

func TestFXRateFallback(t *testing.T) {
	if got := (FXRate{}).Rate(); got != DefaultUSDCAD {
		t.Fatalf("Rate() = %v, want %v", got, DefaultUSDCAD)
	}
	if got := (FXRate{USDCAD: 1.41}).Rate(); got != 1.41 {
		t.Fatalf("Rate() = %v, want 1.41", got)
	}
}
