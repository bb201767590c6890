package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kislikjeka/chainledger/internal/infra/beancount"
	"github.com/kislikjeka/chainledger/internal/ledger"
	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

const (
	TransactionImporterName = "ethereum"
	BalanceImporterName     = "ethereum_balances"
)

// Importer converts one kind of interchange file into ledger directives
type Importer interface {
	// Name returns the unique importer name
	Name() string

	// Identify reports whether the file at path belongs to this importer
	Identify(path string) bool

	// Extract reads the file and returns the directives to append to the ledger.
	// existing holds the entries already in the ledger.
	Extract(ctx context.Context, path string, existing []ledger.Entry) (*beancount.Journal, error)
}

// TransactionImporter turns a transfer file into transactions
type TransactionImporter struct {
	config     *config.Config
	aggregator *ledger.Aggregator
}

// Compile-time check that TransactionImporter implements Importer
var _ Importer = (*TransactionImporter)(nil)

// NewTransactionImporter creates a new transaction importer
func NewTransactionImporter(cfg *config.Config, opts ...ledger.Option) *TransactionImporter {
	return &TransactionImporter{
		config:     cfg,
		aggregator: ledger.NewAggregator(cfg, opts...),
	}
}

func (i *TransactionImporter) Name() string {
	return TransactionImporterName
}

// Identify matches files named {name}.json
func (i *TransactionImporter) Identify(path string) bool {
	return filepath.Base(path) == i.config.TransferFileName()
}

func (i *TransactionImporter) Extract(ctx context.Context, path string, existing []ledger.Entry) (*beancount.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transfer file: %w", err)
	}
	defer f.Close()

	transfers, err := transfer.ReadTransfers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entries, err := i.aggregator.Aggregate(ctx, transfers, existing)
	if err != nil {
		return nil, err
	}
	return &beancount.Journal{Entries: entries}, nil
}

// BalanceImporter turns a balance file into balance assertions
type BalanceImporter struct {
	config   *config.Config
	location *time.Location
}

// Compile-time check that BalanceImporter implements Importer
var _ Importer = (*BalanceImporter)(nil)

// NewBalanceImporter creates a new balance importer. Dates are taken in loc, time.Local when nil.
func NewBalanceImporter(cfg *config.Config, loc *time.Location) *BalanceImporter {
	if loc == nil {
		loc = time.Local
	}
	return &BalanceImporter{
		config:   cfg,
		location: loc,
	}
}

func (i *BalanceImporter) Name() string {
	return BalanceImporterName
}

// Identify matches files named {name}-balances.json
func (i *BalanceImporter) Identify(path string) bool {
	return filepath.Base(path) == i.config.BalanceFileName()
}

// Extract ignores existing entries: assertions are idempotent for the ledger tool
func (i *BalanceImporter) Extract(_ context.Context, path string, _ []ledger.Entry) (*beancount.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open balance file: %w", err)
	}
	defer f.Close()

	snapshots, err := transfer.ReadBalances(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	assertions, err := ledger.ImportBalances(i.config, snapshots, i.location)
	if err != nil {
		return nil, err
	}
	return &beancount.Journal{Assertions: assertions}, nil
}
