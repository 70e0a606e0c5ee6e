package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AddressSlotsStatTable counts storage slots set and cleared per address per
// block. BlockSlotsStatTable aggregates the same counters per block only.
const (
	AddressSlotsStatTable = "int_address_slots_stat_per_block"
	BlockSlotsStatTable   = "int_block_slots_stat"
)

var addressSlotsStatColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number", Codec: "ZSTD(1)"},
	{Name: "slots_cleared", Type: "UInt16", Comment: "The number of slots cleared", Codec: "ZSTD(1)"},
	{Name: "slots_set", Type: "UInt16", Comment: "The number of slots set", Codec: "ZSTD(1)"},
	{Name: "net_slots", Type: "Int32", Default: "slots_set - slots_cleared", Comment: "The net number of slots", Codec: "ZSTD(1)"},
	{Name: "net_slots_bytes", Type: "Int32", Default: "(slots_set - slots_cleared) * 64", Comment: "The net number of raw slot bytes", Codec: "ZSTD(1)"},
}

var blockSlotsStatColumns = []models.ColumnDef{
	{Name: "block_number", Type: "UInt32", Comment: "The block number", Codec: "ZSTD(1)"},
	{Name: "slots_cleared", Type: "UInt16", Comment: "The number of slots cleared", Codec: "ZSTD(1)"},
	{Name: "slots_set", Type: "UInt16", Comment: "The number of slots set", Codec: "ZSTD(1)"},
	{Name: "net_slots", Type: "Int32", Default: "slots_set - slots_cleared", Comment: "The net number of slots", Codec: "ZSTD(1)"},
	{Name: "net_slots_bytes", Type: "Int32", Default: "(slots_set - slots_cleared) * 64", Comment: "The net number of raw slot bytes", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(AddressSlotsStatTable, func(db *DB, ctx context.Context) error {
		return db.initAddressSlotsStat(ctx)
	})
	registerTable(BlockSlotsStatTable, func(db *DB, ctx context.Context) error {
		return db.initBlockSlotsStat(ctx)
	})
}

func (db *DB) initAddressSlotsStat(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, block_number)
	`, db.Name, AddressSlotsStatTable, models.ColumnsToSchemaSQL(addressSlotsStatColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}

func (db *DB) initBlockSlotsStat(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY intDiv(block_number, 5000000)
		ORDER BY (block_number)
	`, db.Name, BlockSlotsStatTable, models.ColumnsToSchemaSQL(blockSlotsStatColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}
