package backfill

import (
	"fmt"
	"strconv"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// preDestructs records account removals from the unrestricted self-destruct
// era. Two event shapes remove an account here: an explicit suicide trace,
// and, before empty-account clearing activated, a zero-value suicide whose
// beneficiary was touched as an empty account.
type preDestructs struct {
	target string
	eras   Eras
}

func newPreDestructs(targetDB string, eras Eras) *preDestructs {
	return &preDestructs{
		target: targetDB + "." + derived.PreDestructsTable,
		eras:   eras,
	}
}

func (s *preDestructs) Key() string         { return "pre_6780_destructs" }
func (s *preDestructs) TargetTable() string { return s.target }
func (s *preDestructs) Description() string {
	return "Records account destructions before the self-destruct restriction"
}

func (s *preDestructs) SourceTables() []string {
	return []string{
		source.TracesTable,
		source.TransactionsTable,
	}
}

func (s *preDestructs) Info() map[string]string {
	return map[string]string{
		"self_destruct_restriction_block": strconv.FormatUint(s.eras.SelfDestructRestriction, 10),
		"empty_account_clearing_block":    strconv.FormatUint(s.eras.EmptyAccountClearing, 10),
	}
}

func (s *preDestructs) RangeNote(startBlock, endBlock uint64) string {
	if endBlock < s.eras.EmptyAccountClearing {
		return " (before empty-account clearing)"
	}
	return ""
}

func (s *preDestructs) InsertSQL(startBlock, endBlock uint64) string {
	if startBlock >= s.eras.SelfDestructRestriction {
		return ""
	}
	if endBlock >= s.eras.SelfDestructRestriction {
		endBlock = s.eras.SelfDestructRestriction - 1
	}

	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
empty_account_suicides AS (
	SELECT
		lower(action_to) AS address,
		block_number,
		lower(transaction_hash) AS tx_hash
	FROM %s FINAL
	WHERE
		action_type = 'suicide'
		AND block_number < %d
		AND %s
		AND action_value = '0'
),
self_destructs AS (
	SELECT
		lower(action_from) AS address,
		block_number,
		lower(transaction_hash) AS tx_hash
	FROM %s FINAL
	WHERE
		action_type = 'suicide'
		AND block_number < %d
		AND %s

	UNION ALL

	SELECT address, block_number, tx_hash FROM empty_account_suicides
)
SELECT
	s.address,
	s.block_number,
	s.tx_hash AS transaction_hash,
	max(g.transaction_index) AS transaction_index
FROM self_destructs s
GLOBAL JOIN get_tx_success g
	ON s.tx_hash = g.transaction_hash
GROUP BY s.address, s.block_number, s.tx_hash
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, true,
			fmt.Sprintf("block_number < %d", s.eras.SelfDestructRestriction)),
		source.TracesTable, s.eras.EmptyAccountClearing,
		inRange("block_number", startBlock, endBlock),
		source.TracesTable, s.eras.SelfDestructRestriction,
		inRange("block_number", startBlock, endBlock),
	)
}
