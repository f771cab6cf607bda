package inventory

import (
	"time"

	"github.com/theirongolddev/larder/internal/model"
)

// DefaultRetention is the number of ledger entries kept before the oldest are trimmed.
const DefaultRetention = 10000

// Ledger is the append-only transaction log. It is not safe for concurrent
// use on its own; Store serializes access.
type Ledger struct {
	entries   []model.Transaction
	retention int
}

// NewLedger returns a ledger seeded with previously persisted entries.
func NewLedger(retention int, entries []model.Transaction) *Ledger {
	if retention < 1 {
		retention = DefaultRetention
	}
	l := &Ledger{retention: retention}
	l.entries = append(l.entries, entries...)
	l.trim()
	return l
}

// Append adds tx to the end of the log, trimming the oldest entries past retention.
func (l *Ledger) Append(tx model.Transaction) {
	l.entries = append(l.entries, tx)
	l.trim()
}

func (l *Ledger) trim() {
	if over := len(l.entries) - l.retention; over > 0 {
		kept := make([]model.Transaction, l.retention)
		copy(kept, l.entries[over:])
		l.entries = kept
	}
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// All returns a copy of every retained entry in chronological order.
func (l *Ledger) All() []model.Transaction {
	out := make([]model.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns entries for which keep returns true, in order.
func (l *Ledger) Filter(keep func(model.Transaction) bool) []model.Transaction {
	var out []model.Transaction
	for _, tx := range l.entries {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ForItem returns every entry touching itemID.
func (l *Ledger) ForItem(itemID string) []model.Transaction {
	return l.Filter(func(tx model.Transaction) bool { return tx.ItemID == itemID })
}

// Between returns entries with since <= timestamp < until. A zero bound is open.
func (l *Ledger) Between(since, until time.Time) []model.Transaction {
	return l.Filter(func(tx model.Transaction) bool {
		if !since.IsZero() && tx.Timestamp.Before(since) {
			return false
		}
		if !until.IsZero() && !tx.Timestamp.Before(until) {
			return false
		}
		return true
	})
}
