package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// MinerAddress is the sentinel counterparty of synthetic network-fee transfers
const MinerAddress = "0xffffffffffffffffffffffffffffffffffffffff"

// ErrMalformedInput is returned when an interchange file does not match the expected shape
var ErrMalformedInput = errors.New("malformed interchange file")

// Transfer is one movement of value observed on chain, normalized across explorer dialects.
// Value is never negative; the sign is applied when postings are built.
type Transfer struct {
	TxID     string          `json:"tx_id"`
	Time     int64           `json:"time"` // Unix seconds
	From     string          `json:"from"`
	To       string          `json:"to"`
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
}

// BalanceSnapshot is a point-in-time balance of one currency held by an owned address
type BalanceSnapshot struct {
	Address  string          `json:"address"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Time     int64           `json:"time"` // Unix seconds
}

// Validate checks the fields required by the aggregator
func (t *Transfer) Validate() error {
	if t.TxID == "" {
		return fmt.Errorf("%w: transfer without tx_id", ErrMalformedInput)
	}
	if t.Currency == "" {
		return fmt.Errorf("%w: transfer %s without currency", ErrMalformedInput, t.TxID)
	}
	if t.Value.IsNegative() {
		return fmt.Errorf("%w: transfer %s has negative value %s", ErrMalformedInput, t.TxID, t.Value)
	}
	return nil
}

// Validate checks the fields required by the balance importer
func (b *BalanceSnapshot) Validate() error {
	if b.Address == "" {
		return fmt.Errorf("%w: balance without address", ErrMalformedInput)
	}
	if b.Currency == "" {
		return fmt.Errorf("%w: balance for %s without currency", ErrMalformedInput, b.Address)
	}
	return nil
}

// ReadTransfers decodes a transfer interchange file. Any unexpected shape fails the whole read.
func ReadTransfers(r io.Reader) ([]Transfer, error) {
	var transfers []Transfer
	if err := decodeStrict(r, &transfers); err != nil {
		return nil, err
	}
	for i := range transfers {
		if err := transfers[i].Validate(); err != nil {
			return nil, err
		}
	}
	return transfers, nil
}

// WriteTransfers encodes transfers as an indented JSON array with decimals as strings
func WriteTransfers(w io.Writer, transfers []Transfer) error {
	if transfers == nil {
		transfers = []Transfer{}
	}
	return encodeIndented(w, transfers)
}

// ReadBalances decodes a balance interchange file. Any unexpected shape fails the whole read.
func ReadBalances(r io.Reader) ([]BalanceSnapshot, error) {
	var balances []BalanceSnapshot
	if err := decodeStrict(r, &balances); err != nil {
		return nil, err
	}
	for i := range balances {
		if err := balances[i].Validate(); err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// WriteBalances encodes balance snapshots as an indented JSON array with decimals as strings
func WriteBalances(w io.Writer, balances []BalanceSnapshot) error {
	if balances == nil {
		balances = []BalanceSnapshot{}
	}
	return encodeIndented(w, balances)
}

func decodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON array", ErrMalformedInput)
	}
	return nil
}

func encodeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode interchange file: %w", err)
	}
	return nil
}
