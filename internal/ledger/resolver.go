package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

// Resolution is the outcome of resolving one leg of a transfer.
// Posting is nil when the leg produces no posting; Payee is set only for unmapped addresses.
type Resolution struct {
	Posting  *Posting
	Payee    string
	HasPayee bool
}

// Resolver maps transfer legs to ledger accounts using static configuration.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	config *config.Config
}

// NewResolver creates a new account resolver
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{config: cfg}
}

// Resolve maps one leg of a transfer to a posting. value is signed: negative for the
// sending leg, positive for the receiving leg.
//
// Rules, in order:
// 1. Miner address: posting against fee_account; the currency must be the base currency
// 2. Owned address: posting against {account}:{suffix}, none when value is zero
// 3. Any other address: expenses when value > 0, income when value < 0, none when zero;
// the address becomes a payee in every case
func (r *Resolver) Resolve(address string, value decimal.Decimal, currency string) (Resolution, error) {
	if strings.EqualFold(address, transfer.MinerAddress) {
		if currency != r.config.BaseCurrency {
			return Resolution{}, fmt.Errorf("%w: got %s, expected %s", ErrFeeCurrencyMismatch, currency, r.config.BaseCurrency)
		}
		return Resolution{Posting: r.posting(r.config.FeeAccount, value, currency)}, nil
	}

	if account, ok := r.config.OwnedAccount(address); ok {
		if value.IsZero() {
			return Resolution{}, nil
		}
		return Resolution{Posting: r.posting(account+":"+r.config.AccountSuffix(currency), value, currency)}, nil
	}

	res := Resolution{Payee: address, HasPayee: true}
	switch value.Sign() {
	case 1:
		res.Posting = r.posting(r.config.ExpensesAccount, value, currency)
	case -1:
		res.Posting = r.posting(r.config.IncomeAccount, value, currency)
	}
	return res, nil
}

func (r *Resolver) posting(account string, value decimal.Decimal, currency string) *Posting {
	return &Posting{
		Account:   account,
		Amount:    value,
		Commodity: r.config.Commodity(currency),
	}
}
