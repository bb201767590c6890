package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/kislikjeka/chainledger/internal/infra/gateway/explorer"
	"github.com/kislikjeka/chainledger/internal/platform/sync"
	"github.com/kislikjeka/chainledger/pkg/config"
	"github.com/kislikjeka/chainledger/pkg/logger"
)

type downloadCmd struct {
	configPath string
	outputDir  string
	noBalances bool
}

func (*downloadCmd) Name() string     { return "download" }
func (*downloadCmd) Synopsis() string { return "download transfers and balances of every owned address" }
func (*downloadCmd) Usage() string {
	return `download [-config <file>] [-output-dir <dir>] [-no-balances]

  Fetches external, internal and token transfers plus the native balance of
  every address in account_map from the configured block explorer, and writes
  {name}.json and {name}-balances.json into the output directory.
  Nothing is written when any request fails.
`
}

func (c *downloadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "config.json", "Path to the configuration file")
	f.StringVar(&c.outputDir, "output-dir", "downloads", "Directory receiving the interchange files")
	f.BoolVar(&c.noBalances, "no-balances", false, "Skip the native balance snapshots")
}

func (c *downloadCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.NewDefault()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := cfg.ValidateExplorer(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	client := explorer.NewClient(explorer.Config{
		BaseURL:      cfg.APIURL,
		APIKey:       cfg.APIKey,
		RequestDelay: cfg.RequestDelay(),
	}, log)

	syncCfg := sync.DefaultConfig(cfg.Addresses())
	syncCfg.FetchBalances = !c.noBalances

	svc, err := sync.NewService(syncCfg, explorer.NewSyncAdapter(client, cfg.BaseCurrency), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	result, err := svc.Download(ctx)
	if err != nil {
		log.WithError(err).Error("download failed")
		return subcommands.ExitFailure
	}

	if err := result.WriteFiles(c.outputDir, cfg.TransferFileName(), cfg.BalanceFileName()); err != nil {
		log.WithError(err).Error("failed to write interchange files")
		return subcommands.ExitFailure
	}

	log.Info("download finished",
		"output_dir", c.outputDir,
		"transfers", len(result.Transfers),
		"balances", len(result.Balances),
	)
	return subcommands.ExitSuccess
}
