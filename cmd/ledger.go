package cmd

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type ledgerCmd struct {
	tail int
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "update the performance ledger and print it" }
func (*ledgerCmd) Usage() string {
	return `tkb ledger [-n <rows>] [-config <file>] [-data <dir>]

  Upserts a ledger row valued from the persisted price history, rebases
  the whole table against the configured base date and rewrites it. No
  network access. Prints the result as CSV, most recent rows last; use
  -n to limit the output to the last n rows.
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.tail, "n", 0, "print only the last n rows (0 prints all)")
}

func (c *ledgerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.close()

	out, _, err := a.runner.Ledger(ctx)
	if err != nil {
		return fail(err)
	}

	// Tail by line: the pct columns are relative to the base row, so
	// truncating rows must not re-derive them.
	if c.tail > 0 {
		lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
		if len(lines) > c.tail+1 {
			kept := append(lines[:1:1], lines[len(lines)-c.tail:]...)
			out = []byte(strings.Join(kept, "\n") + "\n")
		}
	}
	os.Stdout.Write(out)
	return subcommands.ExitSuccess
}
