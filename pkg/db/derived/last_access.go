package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AddressLastAccessTable keeps one row per address: the most recent block
// that touched it. ReplacingMergeTree versioned by block_number keeps the
// latest access across reprocessing.
const AddressLastAccessTable = "int_address_last_access"

// SlotLastAccessTable is the per-(address, slot) variant, carrying the value
// observed at last access.
const SlotLastAccessTable = "int_address_storage_slot_last_access"

var addressLastAccessColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the last access", Codec: "ZSTD(1)"},
	{Name: "is_deleted", Type: "Bool", Comment: "Whether the account is deleted", Codec: "ZSTD(1)"},
}

var slotLastAccessColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "slot_key", Type: "String", Comment: "The slot key of the storage", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the last access", Codec: "ZSTD(1)"},
	{Name: "value", Type: "String", Comment: "The value of the storage", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(AddressLastAccessTable, func(db *DB, ctx context.Context) error {
		return db.initAddressLastAccess(ctx)
	})
	registerTable(SlotLastAccessTable, func(db *DB, ctx context.Context) error {
		return db.initSlotLastAccess(ctx)
	})
}

func (db *DB) initAddressLastAccess(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address)
	`, db.Name, AddressLastAccessTable, models.ColumnsToSchemaSQL(addressLastAccessColumns),
		clickhouse.EngineClause(clickhouse.ReplacingMergeTree, "block_number"))
	return db.Exec(ctx, query)
}

func (db *DB) initSlotLastAccess(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, slot_key)
	`, db.Name, SlotLastAccessTable, models.ColumnsToSchemaSQL(slotLastAccessColumns),
		clickhouse.EngineClause(clickhouse.ReplacingMergeTree, "block_number"))
	return db.Exec(ctx, query)
}
