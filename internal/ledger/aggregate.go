package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kislikjeka/chainledger/internal/platform/transfer"
	"github.com/kislikjeka/chainledger/pkg/config"
)

const defaultWorkers = 4

// Aggregator turns canonical transfers into ledger entries, one per transaction hash
type Aggregator struct {
	config   *config.Config
	resolver *Resolver
	now      func() time.Time
	location *time.Location
	workers  int
}

type Option func(*Aggregator)

// WithClock overrides the clock used for the retention cutoff
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLocation sets the time zone in which entry dates are taken. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		a.location = loc
	}
}

// WithWorkers bounds the number of transactions resolved in parallel
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		a.workers = n
	}
}

// NewAggregator creates a new aggregator
func NewAggregator(cfg *config.Config, opts ...Option) *Aggregator {
	a := &Aggregator{
		config:   cfg,
		resolver: NewResolver(cfg),
		now:      time.Now,
		location: time.Local,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.workers <= 0 {
		a.workers = 1
	}
	if a.location == nil {
		a.location = time.Local
	}
	return a
}

// txGroup is a run of consecutive transfers sharing one transaction hash
type txGroup struct {
	txID      string
	transfers []transfer.Transfer
}

// Aggregate builds ledger entries from transfers.
//
// Steps:
// 1. Sort transfers by (time, tx_id) and group consecutive ones by tx_id
// 2. Resolve both legs of every transfer into postings and payees
// 3. Drop transactions already present in existing, or older than the retention window
//
// Entries are returned in (time, tx_id) order regardless of input order.
// Any resolution error aborts the whole call and no entries are returned.
func (a *Aggregator) Aggregate(ctx context.Context, transfers []transfer.Transfer, existing []Entry) ([]Entry, error) {
	seen := ExistingTxIDs(existing)
	groups := groupByTxID(sortTransfers(transfers))

	// Groups are independent; results are stored by index to keep group order
	entries := make([]Entry, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range groups {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := a.buildEntry(groups[i])
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cutoff := a.now().AddDate(0, 0, -a.config.RetentionDays())
	result := make([]Entry, 0, len(entries))
	for i, entry := range entries {
		if _, ok := seen[groups[i].txID]; ok {
			continue
		}
		if entry.Date.Before(cutoff) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (a *Aggregator) buildEntry(group txGroup) (Entry, error) {
	entry := Entry{
		Date:     time.Unix(group.transfers[0].Time, 0).In(a.location),
		Flag:     FlagCleared,
		Metadata: map[string]string{MetaTxID: group.txID},
	}

	for _, t := range group.transfers {
		currency := strings.ToUpper(t.Currency)
		legs := []struct {
			address    string
			value      decimal.Decimal
			emptyPayee bool
		}{
			// An empty sender is not a payee, an empty recipient is
			{t.From, t.Value.Neg(), false},
			{t.To, t.Value, true},
		}

		for _, leg := range legs {
			res, err := a.resolver.Resolve(leg.address, leg.value, currency)
			if err != nil {
				return Entry{}, fmt.Errorf("tx %s: %w", group.txID, err)
			}
			if res.Posting != nil {
				entry.Postings = append(entry.Postings, *res.Posting)
			}
			if res.HasPayee && (res.Payee != "" || leg.emptyPayee) {
				entry.Payees = append(entry.Payees, res.Payee)
			}
		}
	}

	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// sortTransfers returns a copy of transfers in a total order: (time, tx_id), then
// principal transfers before the fee, then from, to, currency and value.
func sortTransfers(transfers []transfer.Transfer) []transfer.Transfer {
	sorted := make([]transfer.Transfer, len(transfers))
	copy(sorted, transfers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessTransfer(sorted[i], sorted[j])
	})
	return sorted
}

func lessTransfer(a, b transfer.Transfer) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.TxID != b.TxID {
		return a.TxID < b.TxID
	}
	if aFee, bFee := isFee(a), isFee(b); aFee != bFee {
		return bFee
	}
	if a.From != b.From {
		return a.From < b.From
	}
	if a.To != b.To {
		return a.To < b.To
	}
	if a.Currency != b.Currency {
		return a.Currency < b.Currency
	}
	return a.Value.LessThan(b.Value)
}

func isFee(t transfer.Transfer) bool {
	return strings.EqualFold(t.To, transfer.MinerAddress)
}

func groupByTxID(sorted []transfer.Transfer) []txGroup {
	var groups []txGroup
	for _, t := range sorted {
		if n := len(groups); n > 0 && groups[n-1].txID == t.TxID {
			groups[n-1].transfers = append(groups[n-1].transfers, t)
			continue
		}
		groups = append(groups, txGroup{txID: t.TxID, transfers: []transfer.Transfer{t}})
	}
	return groups
}
