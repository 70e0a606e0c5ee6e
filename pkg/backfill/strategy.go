package backfill

import (
	"fmt"
	"sort"
)

// Strategy encapsulates everything the runner needs to rebuild one derived
// table: which sources it reads, the block-range merge operation, and any
// era gating. InsertSQL must be a pure function of the bounds; returning an
// empty string marks the range as inapplicable (skipped, not failed).
// Re-executing the produced statement for the same range against unchanged
// sources must be safe.
type Strategy interface {
	// Key is the short identifier used on the command line.
	Key() string
	// TargetTable is the fully qualified table the operation writes to.
	TargetTable() string
	// SourceTables lists every table the operation reads; the range resolver
	// caps the end block at the least-advanced of these.
	SourceTables() []string
	// Description is a human-readable summary.
	Description() string
	// InsertSQL builds the INSERT..SELECT covering [startBlock, endBlock].
	InsertSQL(startBlock, endBlock uint64) string
}

// RangeAnnotator is optionally implemented by era-sensitive strategies to
// label a sub-range for observability.
type RangeAnnotator interface {
	RangeNote(startBlock, endBlock uint64) string
}

// InfoProvider is optionally implemented by strategies with extra
// configuration worth echoing before a run.
type InfoProvider interface {
	Info() map[string]string
}

// Registry holds the available strategies keyed by their identifiers.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds the full strategy set targeting tables in targetDB,
// with the given era boundaries.
func NewRegistry(targetDB string, eras Eras) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range []Strategy{
		newAddressDiffs(targetDB),
		newAddressReads(targetDB),
		newAddressFirstAccess(targetDB),
		newAddressLastAccess(targetDB),
		newSlotFirstAccess(targetDB),
		newSlotLastAccess(targetDB),
		newAddressSlotsStat(targetDB),
		newBlockSlotsStat(targetDB),
		newPreDestructs(targetDB, eras),
		newPostDestructs(targetDB, eras),
		newAccountsAlive(targetDB, eras),
	} {
		r.strategies[s.Key()] = s
	}
	return r
}

// Get returns the strategy registered under key.
func (r *Registry) Get(key string) (Strategy, error) {
	s, ok := r.strategies[key]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", key)
	}
	return s, nil
}

// Keys returns every registered strategy key in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
