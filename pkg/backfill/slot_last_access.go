package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// slotLastAccess records the most recent access to each (address, slot) pair
// and the value current at that access. As in the first-access variant,
// diffs keep their real (transaction_index, internal_index) chain position
// and reads carry the maximal sentinel pair, but the argMax tuple orders by
// (block, write-over-read, transaction index, internal index), so on a block
// tie the written value beats any value merely read in the same block and
// two writes in the same transaction resolve to the later one.
type slotLastAccess struct {
	target string
}

func newSlotLastAccess(targetDB string) *slotLastAccess {
	return &slotLastAccess{target: targetDB + "." + derived.SlotLastAccessTable}
}

func (s *slotLastAccess) Key() string         { return "slot_last_access" }
func (s *slotLastAccess) TargetTable() string { return s.target }
func (s *slotLastAccess) Description() string {
	return "Records the last block each storage slot was accessed in"
}

func (s *slotLastAccess) SourceTables() []string {
	return []string{
		source.StorageDiffsTable,
		source.StorageReadsTable,
		source.TransactionsTable,
	}
}

func (s *slotLastAccess) InsertSQL(startBlock, endBlock uint64) string {
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
	max(bn) AS block_number,
	%s AS value
FROM all_storage_access
GROUP BY address, slot_key
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, false),
		source.StorageDiffsTable, inRange("block_number", startBlock, endBlock),
		ReadOrderKey, ReadOrderKey,
		source.StorageReadsTable, inRange("sr.block_number", startBlock, endBlock),
		argMaxWritePreferred("value", "bn", "transaction_index", "internal_index"),
	)
}
