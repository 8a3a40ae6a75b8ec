package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/reorder"
	"folio-server/src/views"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

type holdingsCmd struct {
	portfolio int
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list holdings with their value in CAD" }
func (*holdingsCmd) Usage() string {
	return `folioctl holdings [-portfolio <id>]

  Lists holdings, optionally only those of one portfolio.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.portfolio, "portfolio", 0, "only show holdings of this portfolio id")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		holdings, err := read(client.Holdings.Get(ctx))
		if err != nil {
			return err
		}
		if c.portfolio > 0 {
			holdings = views.HoldingsIn(holdings, c.portfolio)
		}
		printMarkdown(HoldingsMarkdown(holdings, client.USDCAD(ctx)))
		return nil
	})
}

type portfoliosCmd struct{}

func (*portfoliosCmd) Name() string     { return "portfolios" }
func (*portfoliosCmd) Synopsis() string { return "list portfolios in display order" }
func (*portfoliosCmd) Usage() string {
	return `folioctl portfolios
`
}
func (*portfoliosCmd) SetFlags(*flag.FlagSet) {}

func (*portfoliosCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		summaries, err := read(client.Summaries.Get(ctx))
		if err != nil {
			return err
		}
		printMarkdown(PortfoliosMarkdown(summaries))
		return nil
	})
}

type moveCmd struct {
	id int
	to int
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "move a portfolio to a new position" }
func (*moveCmd) Usage() string {
	return `folioctl move -id <portfolio id> -to <position>

  Moves a portfolio card. Positions start at 1.
`
}

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.id, "id", 0, "portfolio id to move")
	f.IntVar(&c.to, "to", 0, "new position, starting at 1")
}

func (c *moveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 || c.to <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -id and -to are required")
		return subcommands.ExitUsageError
	}
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		m := reorder.NewMachine(client.PortfolioBoard(), zerolog.Nop())
		order, err := m.Move(ctx, c.id, c.to-1)
		if err != nil {
			return err
		}
		printMarkdown(OrderMarkdown(order))
		return nil
	})
}

type moversCmd struct {
	limit int
}

func (*moversCmd) Name() string     { return "movers" }
func (*moversCmd) Synopsis() string { return "show today's biggest gainers and losers" }
func (*moversCmd) Usage() string {
	return `folioctl movers [-n <count>]
`
}

func (c *moversCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", views.MoversLimit, "how many holdings per side")
}

func (c *moversCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		holdings, err := read(client.Holdings.Get(ctx))
		if err != nil {
			return err
		}
		printMarkdown(MoversMarkdown(views.TopMovers(holdings, c.limit)))
		return nil
	})
}

type historyCmd struct {
	period string
	daily  bool
	tail   int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "show portfolio value over a period" }
func (*historyCmd) Usage() string {
	return `folioctl history [-daily] [-period 1W|1M|3M|YTD|1Y|2Y|3Y|All] [-tail <n>]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", string(views.Period1M), "period to show")
	f.BoolVar(&c.daily, "daily", true, "use the daily series instead of intraday")
	f.IntVar(&c.tail, "tail", 10, "number of most recent points to list")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p := views.Period(c.period)
	if _, err := p.Start(time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		q := client.IntradayHistory
		if c.daily {
			q = client.DailyHistory
		}
		points, err := read(q.Get(ctx))
		if err != nil {
			return err
		}
		trimmed, err := views.TrimHistory(points, p, time.Now())
		if err != nil {
			return err
		}
		printMarkdown(HistoryMarkdown(p, trimmed, views.ChangeOver(trimmed), c.tail))
		return nil
	})
}

type fxCmd struct{}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "show the current USD/CAD rate" }
func (*fxCmd) Usage() string {
	return `folioctl fx
`
}
func (*fxCmd) SetFlags(*flag.FlagSet) {}

func (*fxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		res := client.FX.Get(ctx)
		if !res.HasData || res.Data == nil {
			printMarkdown(FXMarkdown(models.FXRate{USDCAD: models.DefaultUSDCAD}, true))
			return nil
		}
		printMarkdown(FXMarkdown(*res.Data, res.Stale))
		return nil
	})
}
