package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/oakledger/tickbook/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion: this returns immediately unless the binary is
	// invoked by the shell's completion hook.
	completion := &complete.Command{
		Sub: map[string]*complete.Command{
			"run":    {},
			"sync":   {},
			"report": {},
			"ledger": {Flags: map[string]complete.Predictor{"n": predict.Nothing}},
		},
		Flags: map[string]complete.Predictor{
			"config":  predict.Files("*.yaml"),
			"data":    predict.Dirs("*"),
			"cursors": predict.Files("*.db"),
			"v":       predict.Nothing,
		},
	}
	completion.Complete("tkb")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
