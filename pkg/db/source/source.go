// Package source provides read-only access to the raw per-transaction event
// tables produced upstream. Every row carries an entity key (address, or
// address+slot), a block number and, where meaningful, a transaction index
// used to order events within a block.
package source

import (
	"context"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"go.uber.org/zap"
)

// Raw event tables. They live in the source connection's default database.
const (
	BalanceDiffsTable = "default.canonical_execution_balance_diffs"
	BalanceReadsTable = "default.canonical_execution_balance_reads"
	NonceDiffsTable   = "default.canonical_execution_nonce_diffs"
	NonceReadsTable   = "default.canonical_execution_nonce_reads"
	StorageDiffsTable = "default.canonical_execution_storage_diffs"
	StorageReadsTable = "default.canonical_execution_storage_reads"
	ContractsTable    = "default.canonical_execution_contracts"
	TracesTable       = "default.canonical_execution_traces"
	TransactionsTable = "default.canonical_execution_transaction"
)

// DB is the event source adapter.
type DB struct {
	clickhouse.Client
}

// New connects to the source database described by dsn.
func New(ctx context.Context, logger *zap.Logger, dsn string) (*DB, error) {
	client, err := clickhouse.New(ctx, logger.With(zap.String("db", "source")), dsn, "default")
	if err != nil {
		return nil, err
	}
	return &DB{Client: client}, nil
}
