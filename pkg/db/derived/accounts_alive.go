package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/models"
)

// AccountsAliveTable keeps one row per address stating whether the account is
// currently present in state, reconciled from diffs and both destruct tables.
const AccountsAliveTable = "int_accounts_alive"

var accountsAliveColumns = []models.ColumnDef{
	{Name: "address", Type: "String", Comment: "The address of the account", Codec: "ZSTD(1)"},
	{Name: "block_number", Type: "UInt32", Comment: "The block number of the latest status of this address", Codec: "ZSTD(1)"},
	{Name: "is_alive", Type: "Bool", Comment: "Whether the account is currently alive in the state", Codec: "ZSTD(1)"},
}

func init() {
	registerTable(AccountsAliveTable, func(db *DB, ctx context.Context) error {
		return db.initAccountsAlive(ctx)
	})
}

func (db *DB) initAccountsAlive(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = %s
		PARTITION BY cityHash64(address) %% 16
		ORDER BY (address)
	`, db.Name, AccountsAliveTable, models.ColumnsToSchemaSQL(accountsAliveColumns),
		clickhouse.EngineClause(clickhouse.ReplacingMergeTree, "block_number"))
	return db.Exec(ctx, query)
}
