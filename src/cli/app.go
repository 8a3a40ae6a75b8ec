// Package cli implements folioctl, a terminal client for the portfolio
// backend that shares the server's query layer and views.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"folio-server/src/backend"
	"folio-server/src/config"
	"folio-server/src/query"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register adds every folioctl command to c.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&holdingsCmd{}, "portfolio")
	c.Register(&portfoliosCmd{}, "portfolio")
	c.Register(&moveCmd{}, "portfolio")
	c.Register(&moversCmd{}, "portfolio")
	c.Register(&historyCmd{}, "portfolio")
	c.Register(&fxCmd{}, "portfolio")

	c.Register(&budgetCmd{}, "budget")
	c.Register(&transactionsCmd{}, "budget")
	c.Register(&importCmd{}, "budget")
}

var (
	backendURL = flag.String("backend", "", "backend base URL (default from BACKEND_URL)")
	raw        = flag.Bool("raw", false, "print plain markdown instead of styled terminal output")
	verbose    = flag.Bool("v", false, "log backend requests to stderr")
)

// openClient builds a query client over the configured backend. The
// returned func releases it.
func openClient() (*query.Client, func(), error) {
	cfg := config.Load()
	if *backendURL != "" {
		cfg.BackendURL = strings.TrimRight(*backendURL, "/")
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store, err := query.NewStore(query.Options{Timeout: cfg.HTTPTimeout, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	remote := backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.HTTPTimeout,
		Retries: cfg.HTTPRetries,
		Logger:  logger,
	})
	client := query.NewClient(store, remote, query.StaleTimes{
		Market:       cfg.MarketStale,
		FX:           cfg.FXStale,
		Budget:       cfg.BudgetStale,
		Transactions: cfg.TransactionsStale,
	}, logger)
	return client, store.Close, nil
}

// withClient runs fn against a fresh client and maps its error to an exit
// status.
func withClient(ctx context.Context, fn func(context.Context, *query.Client) error) subcommands.ExitStatus {
	client, closeClient, err := openClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeClient()

	if err := fn(ctx, client); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// read unwraps a query result, failing only when there is nothing to show.
func read[T any](res query.Result[T]) (T, error) {
	if !res.HasData {
		var zero T
		if res.Err != nil {
			return zero, res.Err
		}
		return zero, fmt.Errorf("no data")
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "warning: showing cached data: %v\n", res.Err)
	}
	return res.Data, nil
}

func printMarkdown(md string) {
	if *raw {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
