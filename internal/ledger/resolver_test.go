package ledger_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/chainledger/internal/ledger"
	"github.com/kislikjeka/chainledger/internal/platform/transfer"
)

// =============================================================================
// Miner Address Tests
// =============================================================================

func TestResolver_MinerPostsToFeeAccount(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	res, err := resolver.Resolve(transfer.MinerAddress, dec("0.002"), "ETH")
	require.NoError(t, err)
	require.NotNil(t, res.Posting)
	assert.Equal(t, feeAccount, res.Posting.Account)
	assert.True(t, dec("0.002").Equal(res.Posting.Amount))
	assert.Equal(t, "ETH", res.Posting.Commodity)
	assert.False(t, res.HasPayee)
}

func TestResolver_MinerZeroStillPosts(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	res, err := resolver.Resolve(transfer.MinerAddress, decimal.Zero, "ETH")
	require.NoError(t, err)
	require.NotNil(t, res.Posting)
	assert.True(t, res.Posting.Amount.IsZero())
}

func TestResolver_MinerWrongCurrency(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	_, err := resolver.Resolve(transfer.MinerAddress, dec("1"), "USDC")
	assert.ErrorIs(t, err, ledger.ErrFeeCurrencyMismatch)
}

// =============================================================================
// Owned Address Tests
// =============================================================================

func TestResolver_OwnedAddress(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	tests := []struct {
		name      string
		currency  string
		account   string
		commodity string
	}{
		{"unmapped currency", "DAI", walletAccount + ":DAI", "DAI"},
		{"explicit suffix", "USDC", walletAccount + ":USDC", "USDC.e"},
		{"suffix falls back to commodity", "WETH", walletAccount + ":ETH", "ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.Resolve(owned, dec("-5"), tt.currency)
			require.NoError(t, err)
			require.NotNil(t, res.Posting)
			assert.Equal(t, tt.account, res.Posting.Account)
			assert.Equal(t, tt.commodity, res.Posting.Commodity)
			assert.True(t, dec("-5").Equal(res.Posting.Amount))
			assert.False(t, res.HasPayee)
		})
	}
}

func TestResolver_OwnedAddressIgnoresCase(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	res, err := resolver.Resolve(strings.ToUpper(owned), dec("1"), "ETH")
	require.NoError(t, err)
	require.NotNil(t, res.Posting)
	assert.Equal(t, walletAccount+":ETH", res.Posting.Account)
}

func TestResolver_OwnedZeroHasNoPosting(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	res, err := resolver.Resolve(owned, decimal.Zero, "ETH")
	require.NoError(t, err)
	assert.Nil(t, res.Posting)
	assert.False(t, res.HasPayee)
}

// =============================================================================
// Unmapped Address Tests
// =============================================================================

func TestResolver_UnmappedAddress(t *testing.T) {
	resolver := ledger.NewResolver(testConfig(t))

	tests := []struct {
		name    string
		value   string
		account string
	}{
		{"receiving leg is an expense", "2.5", expensesAccount},
		{"sending leg is income", "-2.5", incomeAccount},
		{"zero has no posting", "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.Resolve(external, dec(tt.value), "ETH")
			require.NoError(t, err)

			assert.True(t, res.HasPayee)
			assert.Equal(t, external, res.Payee)

			if tt.account == "" {
				assert.Nil(t, res.Posting)
				return
			}
			require.NotNil(t, res.Posting)
			assert.Equal(t, tt.account, res.Posting.Account)
			assert.True(t, dec(tt.value).Equal(res.Posting.Amount))
		})
	}
}
