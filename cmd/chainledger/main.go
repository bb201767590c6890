package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// register adds the chainledger subcommands
func register(c *subcommands.Commander) {
	c.Register(&downloadCmd{}, "ingestion")
	c.Register(&extractCmd{out: os.Stdout}, "import")
	c.Register(&identifyCmd{out: os.Stdout}, "import")
}
