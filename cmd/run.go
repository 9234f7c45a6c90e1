package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/oakledger/tickbook/renderer"
)

type runCmd struct{}

func (*runCmd) Name() string { return "run" }
func (*runCmd) Synopsis() string {
	return "backfill prices, snapshot the portfolio and update the ledger"
}
func (*runCmd) Usage() string {
	return `tkb run [-config <file>] [-data <dir>]

  Runs the full pipeline: resolves the ticker universe, purges stale
  history, backfills missing prices within the time budget, takes live
  quotes, snapshots the portfolio and updates the performance ledger.
  Designed to be run daily; interrupted backfills resume on the next run.
`
}

func (*runCmd) SetFlags(_ *flag.FlagSet) {}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	result, err := a.runner.Run(ctx)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.ReportMarkdown(result))
	return subcommands.ExitSuccess
}
