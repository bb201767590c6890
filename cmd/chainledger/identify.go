package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/kislikjeka/chainledger/internal/importer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

type identifyCmd struct {
	configPath string
	out        io.Writer
}

func (*identifyCmd) Name() string     { return "identify" }
func (*identifyCmd) Synopsis() string { return "print the importer handling each file" }
func (*identifyCmd) Usage() string {
	return `identify [-config <file>] <file>...

  Prints every recognized file with the name of its importer, tab separated.
  Unrecognized files are left out.
`
}

func (c *identifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "config.json", "Path to the configuration file")
}

func (c *identifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one file is required")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	registry, err := importer.NewDefaultRegistry(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, path := range f.Args() {
		if imp, ok := registry.Identify(path); ok {
			fmt.Fprintf(c.out, "%s\t%s\n", path, imp.Name())
		}
	}
	return subcommands.ExitSuccess
}
