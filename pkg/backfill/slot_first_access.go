package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// slotFirstAccess records the earliest access to each (address, slot) pair
// together with the value observed at that access. Diffs keep their real
// (transaction_index, internal_index) chain position and count regardless of
// transaction success; reads carry the maximal sentinel pair and only count
// when their transaction succeeded. The argMin tuple therefore totally
// orders concurrent writes and makes a written value beat any value merely
// read in the same block.
type slotFirstAccess struct {
	target string
}

func newSlotFirstAccess(targetDB string) *slotFirstAccess {
	return &slotFirstAccess{target: targetDB + "." + derived.SlotFirstAccessTable}
}

func (s *slotFirstAccess) Key() string         { return "slot_first_access" }
func (s *slotFirstAccess) TargetTable() string { return s.target }
func (s *slotFirstAccess) Description() string {
	return "Records the first block each storage slot was accessed in"
}

func (s *slotFirstAccess) SourceTables() []string {
	return []string{
		source.StorageDiffsTable,
		source.StorageReadsTable,
		source.TransactionsTable,
	}
}

func (s *slotFirstAccess) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
all_storage_access AS (
	SELECT
		lower(address) AS address,
		slot AS slot_key,
		block_number AS bn,
		transaction_index,
		internal_index,
		to_value AS value
	FROM %s FINAL
	WHERE %s

	UNION ALL

	SELECT
		lower(sr.contract_address) AS address,
		sr.slot AS slot_key,
		sr.block_number AS bn,
		%d AS transaction_index,
		%d AS internal_index,
		sr.value AS value
	FROM %s sr FINAL
	GLOBAL JOIN get_tx_success g
		ON lower(sr.transaction_hash) = g.transaction_hash
	WHERE %s
)
SELECT
	address,
	slot_key,
	argMin(bn, (bn, transaction_index, internal_index)) AS block_number,
	argMin(value, (bn, transaction_index, internal_index)) AS value,
	NULL AS version
FROM all_storage_access
GROUP BY address, slot_key
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, false),
		source.StorageDiffsTable, inRange("block_number", startBlock, endBlock),
		ReadOrderKey, ReadOrderKey,
		source.StorageReadsTable, inRange("sr.block_number", startBlock, endBlock),
	)
}
