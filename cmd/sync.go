package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "backfill the price history without reporting" }
func (*syncCmd) Usage() string {
	return `tkb sync [-config <file>] [-data <dir>]

  Resolves the ticker universe and backfills the price history within
  the time budget, then stops. Useful to warm up the history over
  several invocations before the first full run.
`
}

func (*syncCmd) SetFlags(_ *flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	result, err := a.runner.Sync(ctx)
	if err != nil {
		return fail(err)
	}

	merged := 0
	for _, n := range result.Backfill.Merged {
		merged += n
	}
	fmt.Printf("merged %d rows, %d tickers completed, %d deferred\n",
		merged, len(result.Backfill.Completed), len(result.Backfill.Unfinished))
	for _, d := range result.Diagnostics {
		fmt.Println(d)
	}
	return subcommands.ExitSuccess
}
