package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/oakledger/tickbook/renderer"
)

type reportCmd struct{}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the command center report from persisted data" }
func (*reportCmd) Usage() string {
	return `tkb report [-config <file>] [-data <dir>]

  Snapshots the portfolio from the persisted price history without
  touching the network and without writing anything back.
`
}

func (*reportCmd) SetFlags(_ *flag.FlagSet) {}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	result, err := a.runner.Report(ctx)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.ReportMarkdown(result))
	return subcommands.ExitSuccess
}
