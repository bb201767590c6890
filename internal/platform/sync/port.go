package sync

import (
	"context"
	"time"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
)

// TransferSource fetches normalized activity of one address from a remote explorer
type TransferSource interface {
	// GetTransfers returns the external, internal and token transfers of address
	GetTransfers(ctx context.Context, address string) ([]transfer.Transfer, error)

	// GetBalances returns the balances of address as snapshots taken at "at"
	GetBalances(ctx context.Context, address string, at time.Time) ([]transfer.BalanceSnapshot, error)
}
