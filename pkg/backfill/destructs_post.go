package backfill

import (
	"fmt"
	"strconv"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// postDestructs records self-destructs from the restricted era, annotating
// each with whether the contract was created in the same transaction. Only
// same-transaction destructs actually remove the account.
type postDestructs struct {
	target string
	eras   Eras
}

func newPostDestructs(targetDB string, eras Eras) *postDestructs {
	return &postDestructs{
		target: targetDB + "." + derived.PostDestructsTable,
		eras:   eras,
	}
}

func (s *postDestructs) Key() string         { return "post_6780_destructs" }
func (s *postDestructs) TargetTable() string { return s.target }
func (s *postDestructs) Description() string {
	return "Records account destructions after the self-destruct restriction"
}

func (s *postDestructs) SourceTables() []string {
	return []string{
		source.TracesTable,
		source.ContractsTable,
		source.TransactionsTable,
	}
}

func (s *postDestructs) Info() map[string]string {
	return map[string]string{
		"self_destruct_restriction_block": strconv.FormatUint(s.eras.SelfDestructRestriction, 10),
	}
}

func (s *postDestructs) InsertSQL(startBlock, endBlock uint64) string {
	if endBlock < s.eras.SelfDestructRestriction {
		return ""
	}
	if startBlock < s.eras.SelfDestructRestriction {
		startBlock = s.eras.SelfDestructRestriction
	}

	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
contracts AS (
	SELECT
		lower(contract_address) AS address,
		lower(transaction_hash) AS tx_hash
	FROM %s FINAL
	WHERE %s
),
self_destructs AS (
	SELECT
		lower(t.action_from) AS address,
		t.block_number,
		lower(t.transaction_hash) AS tx_hash,
		CASE
			WHEN c.address IS NOT NULL THEN true
			ELSE false
		END AS is_same_tx
	FROM %s t FINAL
	LEFT JOIN contracts c
		ON lower(t.action_from) = c.address AND lower(t.transaction_hash) = c.tx_hash
	WHERE
		t.action_type = 'suicide'
		AND t.block_number >= %d
		AND %s
)
SELECT
	s.address,
	s.block_number,
	s.tx_hash AS transaction_hash,
	max(g.transaction_index) AS transaction_index,
	any(s.is_same_tx) AS is_same_tx
FROM self_destructs s
GLOBAL JOIN get_tx_success g
	ON s.tx_hash = g.transaction_hash
GROUP BY s.address, s.block_number, s.tx_hash
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, true,
			fmt.Sprintf("block_number >= %d", s.eras.SelfDestructRestriction)),
		source.ContractsTable, inRange("block_number", startBlock, endBlock),
		source.TracesTable, s.eras.SelfDestructRestriction,
		inRange("t.block_number", startBlock, endBlock),
	)
}
