// Package cmd implements the CLI application to manage the ticker book.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/oakledger/tickbook"
	"github.com/oakledger/tickbook/blob"
	"github.com/oakledger/tickbook/eodhd"
	"github.com/oakledger/tickbook/kvstore"
	"github.com/rs/zerolog"
)

// Commands lists the subcommands a main package registers.
var Commands = []subcommands.Command{
	&runCmd{},
	&syncCmd{},
	&reportCmd{},
	&ledgerCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "tickbook.yaml", "Path to the YAML configuration file")
var dataDir = flag.String("data", ".tickbook", "Path to the data folder holding the CSV and JSON tables")
var cursorDB = flag.String("cursors", "", "Path to the cursor database (defaults to cursors.db inside the data folder)")
var verbose = flag.Bool("v", false, "Enable debug logging")

// app bundles everything a subcommand needs for one invocation.
type app struct {
	cfg    tickbook.Config
	blobs  blob.Store
	runner *tickbook.Runner
	close  func()
}

// newApp loads the configuration and opens the backing stores.
func newApp() (*app, error) {
	cfg, err := tickbook.LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	blobs, err := blob.NewFS(*dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data folder %q: %w", *dataDir, err)
	}

	dbPath := *cursorDB
	if dbPath == "" {
		dbPath = *dataDir + "/cursors.db"
	}
	kv, err := kvstore.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cursor database %q: %w", dbPath, err)
	}

	oracle := eodhd.New(cfg.Oracle, log)

	return &app{
		cfg:    cfg,
		blobs:  blobs,
		runner: tickbook.NewRunner(cfg, blobs, kv, oracle, log),
		close:  func() { kv.Close() },
	}, nil
}

// fail prints the error and maps it to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
