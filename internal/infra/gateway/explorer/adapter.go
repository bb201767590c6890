package explorer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kislikjeka/chainledger/internal/platform/sync"
	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/money"
)

// ErrInvalidRecord is returned when an explorer record cannot be normalized
var ErrInvalidRecord = errors.New("invalid explorer record")

// SyncAdapter adapts the explorer client to the sync.TransferSource interface
type SyncAdapter struct {
	client       *Client
	baseCurrency string
}

// Compile-time check that SyncAdapter implements TransferSource
var _ sync.TransferSource = (*SyncAdapter)(nil)

// NewSyncAdapter creates a new explorer sync adapter
func NewSyncAdapter(client *Client, baseCurrency string) *SyncAdapter {
	return &SyncAdapter{
		client:       client,
		baseCurrency: baseCurrency,
	}
}

// GetTransfers fetches external, internal and token transfers of an address and
// normalizes them. The first failing request aborts the whole call.
func (a *SyncAdapter) GetTransfers(ctx context.Context, address string) ([]transfer.Transfer, error) {
	normal, err := a.client.GetNormalTransactions(ctx, address)
	if err != nil {
		return nil, err
	}
	internal, err := a.client.GetInternalTransactions(ctx, address)
	if err != nil {
		return nil, err
	}
	tokens, err := a.client.GetTokenTransfers(ctx, address)
	if err != nil {
		return nil, err
	}

	result, err := NormalizeNormal(address, a.baseCurrency, normal)
	if err != nil {
		return nil, err
	}
	internalTransfers, err := NormalizeInternal(a.baseCurrency, internal)
	if err != nil {
		return nil, err
	}
	tokenTransfers, err := NormalizeToken(tokens)
	if err != nil {
		return nil, err
	}

	result = append(result, internalTransfers...)
	result = append(result, tokenTransfers...)
	return result, nil
}

// GetBalances fetches the native coin balance of an address as a snapshot taken at "at"
func (a *SyncAdapter) GetBalances(ctx context.Context, address string, at time.Time) ([]transfer.BalanceSnapshot, error) {
	raw, err := a.client.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	balance, err := money.FromBaseUnits(raw, money.NativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("%w: balance of %s: %v", ErrInvalidRecord, address, err)
	}

	return []transfer.BalanceSnapshot{{
		Address:  strings.ToLower(address),
		Currency: a.baseCurrency,
		Balance:  balance,
		Time:     at.Unix(),
	}}, nil
}

// NormalizeNormal converts txlist records of the queried address.
// Failed transactions keep only their fee. The fee is emitted only when the queried
// address is the sender, so a transaction seen from both sides is charged once.
func NormalizeNormal(address, baseCurrency string, txs []NormalTx) ([]transfer.Transfer, error) {
	result := make([]transfer.Transfer, 0, len(txs))
	for _, tx := range txs {
		timestamp, err := parseTimestamp(tx.Hash, tx.TimeStamp)
		if err != nil {
			return nil, err
		}

		isError, err := strconv.Atoi(strings.TrimSpace(tx.IsError))
		if err != nil {
			return nil, fmt.Errorf("%w: tx %s: isError %q", ErrInvalidRecord, tx.Hash, tx.IsError)
		}

		if isError == 0 {
			value, err := money.FromBaseUnits(tx.Value, money.NativeDecimals)
			if err != nil {
				return nil, fmt.Errorf("%w: tx %s: %v", ErrInvalidRecord, tx.Hash, err)
			}
			result = append(result, transfer.Transfer{
				TxID:     tx.Hash,
				Time:     timestamp,
				From:     tx.From,
				To:       tx.To,
				Currency: baseCurrency,
				Value:    value,
			})
		}

		if strings.EqualFold(tx.From, address) {
			fee, err := money.GasFee(tx.GasUsed, tx.GasPrice)
			if err != nil {
				return nil, fmt.Errorf("%w: tx %s: %v", ErrInvalidRecord, tx.Hash, err)
			}
			result = append(result, transfer.Transfer{
				TxID:     tx.Hash,
				Time:     timestamp,
				From:     tx.From,
				To:       transfer.MinerAddress,
				Currency: baseCurrency,
				Value:    fee,
			})
		}
	}
	return result, nil
}

// NormalizeInternal converts txlistinternal records. Error flags are not filtered here
// because explorers do not report internal failures consistently.
func NormalizeInternal(baseCurrency string, txs []InternalTx) ([]transfer.Transfer, error) {
	result := make([]transfer.Transfer, 0, len(txs))
	for _, tx := range txs {
		hash, ok := tx.TxHash()
		if !ok {
			return nil, fmt.Errorf("%w: internal transaction without hash or transactionHash", ErrInvalidRecord)
		}

		timestamp, err := parseTimestamp(hash, tx.TimeStamp)
		if err != nil {
			return nil, err
		}

		value, err := money.FromBaseUnits(tx.Value, money.NativeDecimals)
		if err != nil {
			return nil, fmt.Errorf("%w: tx %s: %v", ErrInvalidRecord, hash, err)
		}

		result = append(result, transfer.Transfer{
			TxID:     hash,
			Time:     timestamp,
			From:     tx.From,
			To:       tx.To,
			Currency: baseCurrency,
			Value:    value,
		})
	}
	return result, nil
}

// NormalizeToken converts tokentx records, dropping non-fungible ones
func NormalizeToken(txs []TokenTransfer) ([]transfer.Transfer, error) {
	result := make([]transfer.Transfer, 0, len(txs))
	for _, tx := range txs {
		if tx.IsNonFungible() {
			continue
		}

		timestamp, err := parseTimestamp(tx.Hash, tx.TimeStamp)
		if err != nil {
			return nil, err
		}

		decimals, err := money.ParseDecimals(tx.TokenDecimal)
		if err != nil {
			return nil, fmt.Errorf("%w: tx %s: %v", ErrInvalidRecord, tx.Hash, err)
		}

		value, err := money.FromBaseUnits(tx.Value, decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: tx %s: %v", ErrInvalidRecord, tx.Hash, err)
		}

		result = append(result, transfer.Transfer{
			TxID:     tx.Hash,
			Time:     timestamp,
			From:     tx.From,
			To:       tx.To,
			Currency: tx.TokenSymbol,
			Value:    value,
		})
	}
	return result, nil
}

func parseTimestamp(hash, raw string) (int64, error) {
	timestamp, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: tx %s: timeStamp %q", ErrInvalidRecord, hash, raw)
	}
	return timestamp, nil
}
