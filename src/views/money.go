package views

import (
	"fmt"
	"math"

	"folio-server/src/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ToCAD converts an amount in cur to CAD.
func ToCAD(amount float64, cur models.Currency, usdcad float64) float64 {
	if cur != models.USD {
		return amount
	}
	return amount * rate(usdcad)
}

// FromCAD converts a CAD amount for display in cur.
func FromCAD(amount float64, cur models.Currency, usdcad float64) float64 {
	if cur != models.USD {
		return amount
	}
	return amount / rate(usdcad)
}

func rate(usdcad float64) float64 {
	if usdcad <= 0 || math.IsNaN(usdcad) || math.IsInf(usdcad, 0) {
		return models.DefaultUSDCAD
	}
	return usdcad
}

// FormatMoney renders amount in cur, e.g. $1,234.56 or -$12.00.
func FormatMoney(amount float64, cur models.Currency) string {
	if cur == "" {
		cur = models.CAD
	}
	c := *money.New(0, string(cur)).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(c.Fraction)).Round(0)
	return c.Formatter().Format(minor.IntPart())
}

// FormatSignedMoney is FormatMoney with an explicit + for gains.
func FormatSignedMoney(amount float64, cur models.Currency) string {
	s := FormatMoney(amount, cur)
	if amount > 0 && s != FormatMoney(0, cur) {
		return "+" + s
	}
	return s
}

type Percent float64

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	return fmt.Sprintf("%+.2f%%", float64(p))
}
