package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FlagCleared marks a completed transaction
	FlagCleared = "*"

	// MetaTxID is the metadata key carrying the chain transaction hash
	MetaTxID = "txid"
)

// Posting is one signed amount of a commodity against a ledger account
type Posting struct {
	Account   string
	Amount    decimal.Decimal
	Commodity string
}

// Entry is a ledger transaction. Payees keep their insertion order and may repeat.
type Entry struct {
	Date      time.Time
	Flag      string
	Payees    []string
	Narration string
	Metadata  map[string]string
	Postings  []Posting
}

// Payee returns the payees joined for display
func (e *Entry) Payee() string {
	return strings.Join(e.Payees, ", ")
}

// TxID returns the transaction hash stored in the entry metadata
func (e *Entry) TxID() (string, bool) {
	txID, ok := e.Metadata[MetaTxID]
	return txID, ok
}

// Totals returns the signed sum of postings per commodity
func (e *Entry) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, p := range e.Postings {
		totals[p.Commodity] = totals[p.Commodity].Add(p.Amount)
	}
	return totals
}

// Validate checks that the postings of every commodity sum to zero
func (e *Entry) Validate() error {
	totals := e.Totals()

	commodities := make([]string, 0, len(totals))
	for commodity := range totals {
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)

	for _, commodity := range commodities {
		if !totals[commodity].IsZero() {
			txID, _ := e.TxID()
			return fmt.Errorf("%w: tx %s: %s %s left over", ErrEntryNotBalanced, txID, totals[commodity].String(), commodity)
		}
	}
	return nil
}

// BalanceAssertion states the expected balance of an account at the start of a date
type BalanceAssertion struct {
	Date      time.Time
	Account   string
	Amount    decimal.Decimal
	Commodity string
}

// ExistingTxIDs collects the transaction hashes of entries that carry txid metadata
func ExistingTxIDs(entries []Entry) map[string]struct{} {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		if txID, ok := entries[i].TxID(); ok {
			seen[txID] = struct{}{}
		}
	}
	return seen
}
