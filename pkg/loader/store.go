package loader

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
)

// ClickHouseStore adapts the native client to the loader's Store interface.
type ClickHouseStore struct {
	Client *clickhouse.Client
}

// TableExists reports whether table is present on the target.
func (s *ClickHouseStore) TableExists(ctx context.Context, table string) (bool, error) {
	return s.Client.TableExists(ctx, table)
}

// InsertAccounts appends rows into table as one native batch.
func (s *ClickHouseStore) InsertAccounts(ctx context.Context, table string, rows []Account) error {
	batch, err := s.Client.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row.Address, row.Nonce, row.Balance, row.CodeHash); err != nil {
			return fmt.Errorf("append row for %s: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", table, err)
	}
	return nil
}
