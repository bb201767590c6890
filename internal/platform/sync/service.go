package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/logger"
)

// Result is the output of one ingestion run
type Result struct {
	RunID     uuid.UUID
	Transfers []transfer.Transfer
	Balances  []transfer.BalanceSnapshot
}

// Service downloads the activity of every owned address
type Service struct {
	config *Config
	source TransferSource
	logger *logger.Logger
}

// NewService creates a new ingestion service
func NewService(config *Config, source TransferSource, log *logger.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync config: %w", err)
	}

	return &Service{
		config: config,
		source: source,
		logger: log.WithField("service", "sync"),
	}, nil
}

// Download fetches transfers (and balances, if enabled) for every address sequentially.
// The first failure aborts the run and no partial result is returned.
func (s *Service) Download(ctx context.Context) (*Result, error) {
	runID := uuid.New()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID.String())
	log := s.logger.WithContext(ctx)

	start := time.Now()
	log.Info("starting ingestion run", "addresses", len(s.config.Addresses))

	result := &Result{RunID: runID}

	for _, address := range s.config.Addresses {
		addrCtx := context.WithValue(ctx, logger.AddressKey, address)
		addrLog := s.logger.WithContext(addrCtx)

		transfers, err := s.source.GetTransfers(addrCtx, address)
		if err != nil {
			addrLog.WithError(err).Error("failed to fetch transfers")
			return nil, fmt.Errorf("failed to fetch transfers of %s: %w", address, err)
		}
		result.Transfers = append(result.Transfers, transfers...)

		if s.config.FetchBalances {
			balances, err := s.source.GetBalances(addrCtx, address, s.config.Now())
			if err != nil {
				addrLog.WithError(err).Error("failed to fetch balances")
				return nil, fmt.Errorf("failed to fetch balances of %s: %w", address, err)
			}
			result.Balances = append(result.Balances, balances...)
		}

		addrLog.Info("address downloaded", "transfers", len(transfers))
	}

	log.WithDuration(time.Since(start)).Info("ingestion run completed",
		"transfers", len(result.Transfers),
		"balances", len(result.Balances))

	return result, nil
}

// WriteFiles persists the result as interchange files in dir. Both files are staged
// under temporary names and renamed only once both are written, so a failed write
// leaves the previous pair untouched.
func (r *Result) WriteFiles(dir, transferFile, balanceFile string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	transferTmp, err := stageFile(filepath.Join(dir, transferFile), func(f *os.File) error {
		return transfer.WriteTransfers(f, r.Transfers)
	})
	if err != nil {
		return err
	}
	defer os.Remove(transferTmp)

	balanceTmp, err := stageFile(filepath.Join(dir, balanceFile), func(f *os.File) error {
		return transfer.WriteBalances(f, r.Balances)
	})
	if err != nil {
		return err
	}
	defer os.Remove(balanceTmp)

	if err := os.Rename(transferTmp, filepath.Join(dir, transferFile)); err != nil {
		return fmt.Errorf("failed to write %s: %w", transferFile, err)
	}
	if err := os.Rename(balanceTmp, filepath.Join(dir, balanceFile)); err != nil {
		return fmt.Errorf("failed to write %s: %w", balanceFile, err)
	}
	return nil
}

// stageFile writes a temp file next to path and returns its name
func stageFile(path string, write func(f *os.File) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	return tmp.Name(), nil
}
