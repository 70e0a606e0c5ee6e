package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AddressFirstAccessTable keeps one row per address: the first block that
// touched it. The version column inverts the block number so the replacing
// merge keeps the earliest access when ranges are reprocessed.
const AddressFirstAccessTable = "int_address_first_access"

// SlotFirstAccessTable is the per-(address, slot) variant, carrying the value
// observed at first access.
const SlotFirstAccessTable = "int_address_storage_slot_first_access"

var addressFirstAccessColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the first access", Codec: "ZSTD(1)"},
	{Name: "version", Type: "UInt32", Default: "4294967295 - block_number", Comment: "Version for this address", Codec: "DoubleDelta, ZSTD(1)"},
}

var slotFirstAccessColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "slot_key", Type: "String", Comment: "The slot key of the storage", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the first access", Codec: "ZSTD(1)"},
	{Name: "value", Type: "String", Comment: "The value of the storage", Codec: "ZSTD(1)"},
	{Name: "version", Type: "UInt32", Default: "4294967295 - block_number", Comment: "Version for this address + slot key", Codec: "DoubleDelta, ZSTD(1)"},
}

func init() {
	registerTable(AddressFirstAccessTable, func(db *DB, ctx context.Context) error {
		return db.initAddressFirstAccess(ctx)
	})
	registerTable(SlotFirstAccessTable, func(db *DB, ctx context.Context) error {
		return db.initSlotFirstAccess(ctx)
	})
}

func (db *DB) initAddressFirstAccess(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address)
	`, db.Name, AddressFirstAccessTable, models.ColumnsToSchemaSQL(addressFirstAccessColumns),
		clickhouse.EngineClause(clickhouse.ReplacingMergeTree, "version"))
	return db.Exec(ctx, query)
}

func (db *DB) initSlotFirstAccess(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, slot_key)
	`, db.Name, SlotFirstAccessTable, models.ColumnsToSchemaSQL(slotFirstAccessColumns),
		clickhouse.EngineClause(clickhouse.ReplacingMergeTree, "version"))
	return db.Exec(ctx, query)
}
