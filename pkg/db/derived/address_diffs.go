package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AddressDiffsTable aggregates, per address and block, the state-changing
// events (balance/nonce/storage diffs, contract creations) from successful
// transactions.
const AddressDiffsTable = "int_address_diffs"

var addressDiffsColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the diffs", Codec: "ZSTD(1)"},
	{Name: "tx_count", Type: "UInt32", Comment: "The number of transactions with diffs for this address in the block", Codec: "ZSTD(1)"},
	{Name: "last_tx_index", Type: "UInt32", Comment: "The last transaction index with diffs for this address in the block", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(AddressDiffsTable, func(db *DB, ctx context.Context) error {
		return db.initAddressDiffs(ctx)
	})
}

func (db *DB) initAddressDiffs(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, block_number)
	`, db.Name, AddressDiffsTable, models.ColumnsToSchemaSQL(addressDiffsColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}
