package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/views"

	"github.com/google/subcommands"
)

type budgetCmd struct{}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "show the monthly budget by category" }
func (*budgetCmd) Usage() string {
	return `folioctl budget
`
}
func (*budgetCmd) SetFlags(*flag.FlagSet) {}

func (*budgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		summary, err := read(client.BudgetSummary.Get(ctx))
		if err != nil {
			return err
		}
		items, err := read(client.BudgetItems.Get(ctx))
		if err != nil {
			return err
		}
		categories := client.Categories.Get(ctx)
		printMarkdown(BudgetMarkdown(summary, views.GroupBudgetItems(items, categories.Data)))
		return nil
	})
}

type transactionsCmd struct {
	rng     string
	from    string
	to      string
	account int
	search  string
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list transactions with totals" }
func (*transactionsCmd) Usage() string {
	return `folioctl transactions [-range all|last7|last30|thisMonth|lastMonth|thisYear|custom] [-from <date>] [-to <date>] [-account <id>] [-q <text>]
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rng, "range", string(views.RangeLast30), "named date range")
	f.StringVar(&c.from, "from", "", "start date (YYYY-MM-DD) for -range custom")
	f.StringVar(&c.to, "to", "", "end date (YYYY-MM-DD) for -range custom")
	f.IntVar(&c.account, "account", 0, "only this account id")
	f.StringVar(&c.search, "q", "", "search in descriptions")
}

func (c *transactionsCmd) filter(today models.Date) (views.TransactionFilter, error) {
	var from, to models.Date
	var err error
	if c.from != "" {
		if from, err = models.ParseDate(c.from); err != nil {
			return views.TransactionFilter{}, err
		}
	}
	if c.to != "" {
		if to, err = models.ParseDate(c.to); err != nil {
			return views.TransactionFilter{}, err
		}
	}
	rng, err := views.ResolveRange(views.RangeName(c.rng), today, from, to)
	if err != nil {
		return views.TransactionFilter{}, err
	}
	f := views.TransactionFilter{Range: rng, Query: c.search}
	if c.account > 0 {
		f.AccountID = &c.account
	}
	return f, nil
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	f, err := c.filter(models.DateOf(time.Now()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		txns, err := read(client.Transactions.Get(ctx))
		if err != nil {
			return err
		}
		filtered := views.FilterTransactions(txns, f)
		printMarkdown(TransactionsMarkdown(filtered, f.Range, views.RangeTotals(filtered)))
		return nil
	})
}

type importCmd struct {
	account int
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a CSV bank statement" }
func (*importCmd) Usage() string {
	return `folioctl import [-account <id>] <file.csv>

  Uploads a statement. Rows already imported are skipped by the backend.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.account, "account", 0, "account id the statement belongs to")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one CSV file")
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	var account *int
	if c.account > 0 {
		account = &c.account
	}
	return withClient(ctx, func(ctx context.Context, client *query.Client) error {
		name := filepath.Base(path)
		res, err := client.UploadTransactions(ctx, name, file, account)
		if err != nil {
			return err
		}
		printMarkdown(ImportMarkdown(name, res))
		return nil
	})
}
