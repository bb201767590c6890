package ledger

import (
	"fmt"
	"time"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

// ImportBalances converts balance snapshots into balance assertions, one per snapshot.
// Dates are taken in loc (time.Local when nil). Every snapshot address must be owned.
func ImportBalances(cfg *config.Config, snapshots []transfer.BalanceSnapshot, loc *time.Location) ([]BalanceAssertion, error) {
	if loc == nil {
		loc = time.Local
	}

	assertions := make([]BalanceAssertion, 0, len(snapshots))
	for _, snapshot := range snapshots {
		account, ok := cfg.OwnedAccount(snapshot.Address)
		if !ok {
			return nil, fmt.Errorf("%w: balance snapshot for %s", ErrUnmappedAddress, snapshot.Address)
		}

		assertions = append(assertions, BalanceAssertion{
			Date:      time.Unix(snapshot.Time, 0).In(loc),
			Account:   account + ":" + cfg.AccountSuffix(snapshot.Currency),
			Amount:    snapshot.Balance,
			Commodity: cfg.Commodity(snapshot.Currency),
		})
	}
	return assertions, nil
}
