package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

const (
	owned     = "0x1111111111111111111111111111111111111111"
	ownedAlt  = "0x3333333333333333333333333333333333333333"
	external  = "0x2222222222222222222222222222222222222222"
	external2 = "0x4444444444444444444444444444444444444444"

	walletAccount    = "Assets:Crypto:Main"
	altAccount       = "Assets:Crypto:Cold"
	feeAccount       = "Expenses:Fees:Gas"
	expensesAccount  = "Expenses:Unknown"
	incomeAccount    = "Income:Unknown"
	testConfigSource = `
name: mainnet
account_map:
  "0x1111111111111111111111111111111111111111": Assets:Crypto:Main
  "0x3333333333333333333333333333333333333333": Assets:Crypto:Cold
fee_account: Expenses:Fees:Gas
expenses_account: Expenses:Unknown
income_account: Income:Unknown
base_currency: ETH
currency_map:
  USDC:
    commodity: USDC.e
    account_suffix: USDC
  WETH:
    commodity: ETH
`
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfigSource))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTransfer(txID string, at int64, from, to, currency, value string) transfer.Transfer {
	return transfer.Transfer{
		TxID:     txID,
		Time:     at,
		From:     from,
		To:       to,
		Currency: currency,
		Value:    dec(value),
	}
}
