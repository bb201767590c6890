package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/kislikjeka/chainledger/internal/importer"
	"github.com/kislikjeka/chainledger/internal/infra/beancount"
	"github.com/kislikjeka/chainledger/internal/ledger"
	"github.com/kislikjeka/chainledger/pkg/config"
	"github.com/kislikjeka/chainledger/pkg/logger"
)

type extractCmd struct {
	configPath   string
	existingPath string
	out          io.Writer
}

func (*extractCmd) Name() string     { return "extract" }
func (*extractCmd) Synopsis() string { return "convert downloaded files into beancount directives" }
func (*extractCmd) Usage() string {
	return `extract [-config <file>] [-existing <ledger.beancount>] <file>...

  Routes every file to the importer that recognizes it and prints the
  resulting beancount directives on stdout. Transactions whose txid is
  already in the existing ledger are skipped. Unrecognized files are ignored.
`
}

func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "config.json", "Path to the configuration file")
	f.StringVar(&c.existingPath, "existing", "", "Existing beancount ledger used for deduplication")
}

func (c *extractCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.NewDefault()

	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one file is required")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	var existing []ledger.Entry
	if c.existingPath != "" {
		journal, err := beancount.ReadFile(c.existingPath)
		if err != nil {
			log.WithError(err).Error("failed to read existing ledger")
			return subcommands.ExitFailure
		}
		existing = journal.Entries
	}

	registry, err := importer.NewDefaultRegistry(cfg, nil)
	if err != nil {
		log.WithError(err).Error("failed to register importers")
		return subcommands.ExitFailure
	}

	// Extract every file before printing anything
	var journals []*beancount.Journal
	for _, path := range f.Args() {
		imp, ok := registry.Identify(path)
		if !ok {
			log.Info("skipping unrecognized file", "file", path)
			continue
		}

		journal, err := imp.Extract(ctx, path, existing)
		if err != nil {
			log.WithError(err).Error("extract failed", "file", path, "importer", imp.Name())
			return subcommands.ExitFailure
		}
		log.Debug("extracted file",
			"file", path,
			"importer", imp.Name(),
			"entries", len(journal.Entries),
			"assertions", len(journal.Assertions),
		)
		journals = append(journals, journal)
	}

	for _, journal := range journals {
		if err := beancount.WriteEntries(c.out, journal.Entries); err != nil {
			log.WithError(err).Error("failed to write entries")
			return subcommands.ExitFailure
		}
		if err := beancount.WriteAssertions(c.out, journal.Assertions); err != nil {
			log.WithError(err).Error("failed to write balance assertions")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
