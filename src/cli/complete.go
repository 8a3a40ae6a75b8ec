package cli

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var (
	periods = predict.Set{"1W", "1M", "3M", "YTD", "1Y", "2Y", "3Y", "All"}
	ranges  = predict.Set{"all", "last7", "last30", "thisMonth", "lastMonth", "thisYear", "custom"}
)

// Completion describes folioctl for shell completion.
func Completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"backend": predict.Something,
			"raw":     predict.Nothing,
			"v":       predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"holdings":   {Flags: map[string]complete.Predictor{"portfolio": predict.Something}},
			"portfolios": {},
			"move": {Flags: map[string]complete.Predictor{
				"id": predict.Something,
				"to": predict.Something,
			}},
			"movers": {Flags: map[string]complete.Predictor{"n": predict.Something}},
			"history": {Flags: map[string]complete.Predictor{
				"period": periods,
				"daily":  predict.Nothing,
				"tail":   predict.Something,
			}},
			"fx":     {},
			"budget": {},
			"transactions": {Flags: map[string]complete.Predictor{
				"range":   ranges,
				"from":    predict.Something,
				"to":      predict.Something,
				"account": predict.Something,
				"q":       predict.Something,
			}},
			"import": {
				Flags: map[string]complete.Predictor{"account": predict.Something},
				Args:  predict.Files("*.csv"),
			},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
	}
}
