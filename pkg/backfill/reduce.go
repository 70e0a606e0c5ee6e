package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// ReadOrderKey is the sentinel order key assigned to events that carry no
// natural within-block position (pure reads). It is the maximal UInt32 value:
// in earliest-wins reductions a read therefore loses against any write in the
// same block, and the latest-wins comparison treats the sentinel as
// write-loses explicitly (see PickLatest), so writes beat reads on block ties
// in both directions.
const ReadOrderKey uint64 = 4294967295

// Candidate is one entity-state proposal contributed by an event category:
// its position in the chain history and the liveness outcome it asserts.
type Candidate struct {
	Block    uint64
	OrderKey uint64
	Alive    bool
}

// isWrite reports whether the candidate stems from an event with a real
// within-block position.
func (c Candidate) isWrite() bool {
	return c.OrderKey != ReadOrderKey
}

// PickEarliest returns the candidate occurring first in chain order,
// comparing (block, order key) ascending. Reads carry the maximal sentinel,
// so within a block any write precedes every read. Exact ties keep a.
func PickEarliest(a, b Candidate) Candidate {
	if b.Block < a.Block {
		return b
	}
	if b.Block == a.Block && b.OrderKey < a.OrderKey {
		return b
	}
	return a
}

// PickLatest returns the candidate that governs the final state, comparing
// (block, write-over-read, order key) descending. On an exact positional tie
// the pessimistic outcome wins: the candidate asserting "not alive" is
// selected over the one asserting "alive".
func PickLatest(a, b Candidate) Candidate {
	switch {
	case a.Block != b.Block:
		if a.Block > b.Block {
			return a
		}
		return b
	case a.isWrite() != b.isWrite():
		if a.isWrite() {
			return a
		}
		return b
	case a.OrderKey != b.OrderKey:
		if a.OrderKey > b.OrderKey {
			return a
		}
		return b
	}
	// Exact tie: concurrent-looking events resolve toward the conservative
	// interpretation.
	if !a.Alive {
		return a
	}
	return b
}

// argMaxPessimistic renders the latest-wins selection of value ordered by
// (block, order) with the not-value tie-break, i.e. on identical positions
// the row where value is false wins.
func argMaxPessimistic(value, block, order string) string {
	return fmt.Sprintf("argMax(%s, (%s, %s, NOT %s))", value, block, order, value)
}

// argMaxWritePreferred renders the latest-wins selection of value ordered by
// (block, write-over-read, transaction index, internal index), where reads
// carry the sentinel in both index columns. The full pair totally orders
// writes within a transaction.
func argMaxWritePreferred(value, block, txIndex, internalIndex string) string {
	return fmt.Sprintf("argMax(%s, (%s, %s != %d, %s, %s))",
		value, block, txIndex, ReadOrderKey, txIndex, internalIndex)
}

// successfulTxHashes renders the shared CTE body selecting the lowercased
// hashes of successful transactions in [start, end]. withIndex additionally
// selects the transaction index; extraPreds are ANDed into the WHERE clause.
func successfulTxHashes(start, end uint64, withIndex bool, extraPreds ...string) string {
	cols := "lower(transaction_hash) AS transaction_hash"
	if withIndex {
		cols += ",\n\t\ttransaction_index"
	}
	where := fmt.Sprintf("block_number BETWEEN %d AND %d\n\t\tAND success = true", start, end)
	for _, p := range extraPreds {
		where = p + "\n\t\tAND " + where
	}
	return fmt.Sprintf(`SELECT
		%s
	FROM %s FINAL
	WHERE
		%s`, cols, source.TransactionsTable, where)
}

// inRange renders the inclusive block interval predicate for col.
func inRange(col string, start, end uint64) string {
	return fmt.Sprintf("%s BETWEEN %d AND %d", col, start, end)
}
