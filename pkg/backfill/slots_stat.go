package backfill

import (
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
)

// zeroSlotValue is the 32-byte zero word. A diff transitioning away from it
// sets a slot; a diff transitioning to it clears one.
const zeroSlotValue = "0x0000000000000000000000000000000000000000000000000000000000000000"

// slotStatCounters renders the cleared/set countIf pair over from_value and
// to_value.
func slotStatCounters() string {
	return fmt.Sprintf(`countIf(from_value != '%[1]s'
			AND to_value = '%[1]s') AS slots_cleared,
		countIf(from_value = '%[1]s'
			AND to_value != '%[1]s') AS slots_set`, zeroSlotValue)
}

// addressSlotsStat counts storage slots set and cleared per address per
// block. The net columns are left to their table defaults.
type addressSlotsStat struct {
	target string
}

func newAddressSlotsStat(targetDB string) *addressSlotsStat {
	return &addressSlotsStat{target: targetDB + "." + derived.AddressSlotsStatTable}
}

func (s *addressSlotsStat) Key() string         { return "address_slots_stat" }
func (s *addressSlotsStat) TargetTable() string { return s.target }
func (s *addressSlotsStat) Description() string {
	return "Counts storage slots set and cleared per address per block"
}

func (s *addressSlotsStat) SourceTables() []string {
	return []string{
		source.StorageDiffsTable,
		source.TransactionsTable,
	}
}

func (s *addressSlotsStat) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
storage_changes AS (
	SELECT
		lower(sd.address) AS address,
		sd.block_number,
		sd.from_value,
		sd.to_value
	FROM %s sd FINAL
	GLOBAL JOIN get_tx_success g
		ON lower(sd.transaction_hash) = g.transaction_hash
	WHERE %s
),
address_slot_stats AS (
	SELECT
		address,
		block_number,
		%s
	FROM storage_changes
	GROUP BY address, block_number
)
SELECT
	address,
	block_number,
	slots_cleared,
	slots_set,
	NULL AS net_slots,
	NULL AS net_slots_bytes
FROM address_slot_stats
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, false),
		source.StorageDiffsTable, inRange("sd.block_number", startBlock, endBlock),
		slotStatCounters(),
	)
}

// blockSlotsStat counts storage slots set and cleared per block across all
// addresses.
type blockSlotsStat struct {
	target string
}

func newBlockSlotsStat(targetDB string) *blockSlotsStat {
	return &blockSlotsStat{target: targetDB + "." + derived.BlockSlotsStatTable}
}

func (s *blockSlotsStat) Key() string         { return "block_slots_stat" }
func (s *blockSlotsStat) TargetTable() string { return s.target }
func (s *blockSlotsStat) Description() string {
	return "Counts storage slots set and cleared per block"
}

func (s *blockSlotsStat) SourceTables() []string {
	return []string{
		source.StorageDiffsTable,
		source.TransactionsTable,
	}
}

func (s *blockSlotsStat) InsertSQL(startBlock, endBlock uint64) string {
	return fmt.Sprintf(`
INSERT INTO %s
WITH
get_tx_success AS (
	%s
),
storage_changes AS (
	SELECT
		sd.block_number,
		sd.from_value,
		sd.to_value
	FROM %s sd FINAL
	GLOBAL JOIN get_tx_success g
		ON lower(sd.transaction_hash) = g.transaction_hash
	WHERE %s
),
block_slot_stats AS (
	SELECT
		block_number,
		%s
	FROM storage_changes
	GROUP BY block_number
)
SELECT
	block_number,
	slots_cleared,
	slots_set,
	NULL AS net_slots,
	NULL AS net_slots_bytes
FROM block_slot_stats
`,
		s.target,
		successfulTxHashes(startBlock, endBlock, false),
		source.StorageDiffsTable, inRange("sd.block_number", startBlock, endBlock),
		slotStatCounters(),
	)
}
