package backfill

import (
	"fmt"
	"strconv"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
)

// accountsAlive folds the diff and destruct tables into one liveness bit per
// address. Every diff asserts alive; a destruct from the unrestricted era
// asserts dead; a destruct from the restricted era asserts dead only when it
// happened in the creating transaction. The latest assertion by
// (block, transaction index) wins, and an exact positional tie resolves to
// dead.
type accountsAlive struct {
	target string
	diffs  string
	pre    string
	post   string
	eras   Eras
}

func newAccountsAlive(targetDB string, eras Eras) *accountsAlive {
	return &accountsAlive{
		target: targetDB + "." + derived.AccountsAliveTable,
		diffs:  targetDB + "." + derived.AddressDiffsTable,
		pre:    targetDB + "." + derived.PreDestructsTable,
		post:   targetDB + "." + derived.PostDestructsTable,
		eras:   eras,
	}
}

func (s *accountsAlive) Key() string         { return "accounts_alive" }
func (s *accountsAlive) TargetTable() string { return s.target }
func (s *accountsAlive) Description() string {
	return "Derives per-address liveness from diffs and destructs"
}

func (s *accountsAlive) SourceTables() []string {
	return []string{s.diffs, s.post, s.pre}
}

func (s *accountsAlive) Info() map[string]string {
	return map[string]string{
		"self_destruct_restriction_block": strconv.FormatUint(s.eras.SelfDestructRestriction, 10),
		"reduction":                       "latest by (block_number, transaction_index), ties resolve to dead",
	}
}

func (s *accountsAlive) RangeNote(startBlock, endBlock uint64) string {
	switch {
	case endBlock < s.eras.SelfDestructRestriction:
		return " (unrestricted self-destruct era)"
	case startBlock >= s.eras.SelfDestructRestriction:
		return " (restricted self-destruct era)"
	default:
		return " (spans the self-destruct restriction)"
	}
}

func (s *accountsAlive) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
pre_destructs AS (
	SELECT
		address,
		block_number AS block_num,
		transaction_index,
		false AS is_alive
	FROM %s
	WHERE %s
),
post_destructs AS (
	SELECT
		address,
		block_number AS block_num,
		transaction_index,
		CASE
			WHEN is_same_tx = true THEN false
			ELSE true
		END AS is_alive
	FROM %s
	WHERE %s
),
diffs AS (
	SELECT
		address,
		block_number AS block_num,
		last_tx_index AS transaction_index,
		true AS is_alive
	FROM %s
	WHERE %s
),
combined AS (
	SELECT * FROM pre_destructs
	UNION ALL
	SELECT * FROM post_destructs
	UNION ALL
	SELECT * FROM diffs
)
SELECT
	address,
	max(block_num) AS block_number,
	%s AS is_alive
FROM combined
GROUP BY address
`,
		s.target,
		s.pre, inRange("block_number", startBlock, endBlock),
		s.post, inRange("block_number", startBlock, endBlock),
		s.diffs, inRange("block_number", startBlock, endBlock),
		argMaxPessimistic("is_alive", "block_num", "transaction_index"),
	)
}
