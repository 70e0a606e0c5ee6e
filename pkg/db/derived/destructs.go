package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// PreDestructsTable records self-destructs executed before the EIP-6780
// activation, where a SELFDESTRUCT always removed the account.
// PostDestructsTable records self-destructs at or after activation, where
// removal additionally requires creation in the same transaction; the
// is_same_tx flag carries that join result.
const (
	PreDestructsTable  = "int_pre_6780_accounts_destructs"
	PostDestructsTable = "int_post_6780_accounts_destructs"
)

var preDestructsColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the self-destructs", Codec: "ZSTD(1)"},
	{Name: "transaction_hash", Type: "FixedString(66)", Comment: "The transaction hash", Codec: "ZSTD(1)"},
	{Name: "transaction_index", Type: "UInt64", Comment: "The transaction index", Codec: "DoubleDelta, ZSTD(1)"},
}

var postDestructsColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number", Codec: "ZSTD(1)"},
	{Name: "transaction_hash", Type: "FixedString(66)", Comment: "The transaction hash", Codec: "ZSTD(1)"},
	{Name: "transaction_index", Type: "UInt64", Comment: "The transaction index", Codec: "DoubleDelta, ZSTD(1)"},
	{Name: "is_same_tx", Type: "Bool", Comment: "Whether the self-destruct is in the same transaction as the creation", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(PreDestructsTable, func(db *DB, ctx context.Context) error {
		return db.initPreDestructs(ctx)
	})
	registerTable(PostDestructsTable, func(db *DB, ctx context.Context) error {
		return db.initPostDestructs(ctx)
	})
}

func (db *DB) initPreDestructs(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, block_number, transaction_hash)
	`, db.Name, PreDestructsTable, models.ColumnsToSchemaSQL(preDestructsColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}

func (db *DB) initPostDestructs(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address, block_number, transaction_hash)
	`, db.Name, PostDestructsTable, models.ColumnsToSchemaSQL(postDestructsColumns),
		clickhouse.EngineClause(clickhouse.MergeTree, ""))
	return db.Exec(ctx, query)
}
