package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AddressReadsTable aggregates, per address and block, the read-only events
// (balance/nonce/storage reads) from successful transactions.
const AddressReadsTable = "int_address_reads"

var addressReadsColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the reads", Codec: "ZSTD(1)"},
	{Name: "tx_count", Type: "UInt32", Comment: "The number of reads for this address in this block", Codec: "ZSTD(1)"},
	{Name: "last_tx_index", Type: "UInt32", Comment: "The last transaction index with reads for this address in the block", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(AddressReadsTable, func(db *DB, ctx context.Context) error {
		return db.initAddressReads(ctx)
	})
}

func (db *DB) initAddressReads(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, block_number)
	`, db.Name, AddressReadsTable, models.ColumnsToSchemaSQL(addressReadsColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}
