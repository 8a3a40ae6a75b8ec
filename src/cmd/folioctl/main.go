package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"folio-server/src/cli"

	"github.com/google/subcommands"
)

func main() {
	// Answers shell completion requests and exits when COMP_LINE is set.
	cli.Completion().Complete("folioctl")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}
