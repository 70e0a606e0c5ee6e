// Package derived owns the reconstructed per-address and per-block state
// tables and their schemas. Tables are created idempotently; re-running the
// provisioner against an existing database is always safe.
package derived

import (
	"context"
	"fmt"

	"github.com/weiihann/backfill-state-dashboard/pkg/db/clickhouse"
	"go.uber.org/zap"
)

// DB represents the target database holding the derived tables.
type DB struct {
	clickhouse.Client
	Name string
}

// New connects to the target database described by dsn. dbName is the
// database the derived tables live in (the original deployment calls it
// "mainnet").
func New(ctx context.Context, logger *zap.Logger, dsn, dbName string) (*DB, error) {
	name := clickhouse.SanitizeName(dbName)

	client, err := clickhouse.New(ctx, logger.With(zap.String("db", name)), dsn, name)
	if err != nil {
		return nil, err
	}

	return &DB{Client: client, Name: name}, nil
}

// InitializeDB ensures the target database and every derived table exist.
func (db *DB) InitializeDB(ctx context.Context) error {
	if err := db.CreateDbIfNotExists(ctx, db.Name); err != nil {
		return fmt.Errorf("failed to create database %s: %w", db.Name, err)
	}
	return db.InitTables(ctx, TableNames()...)
}

// InitTables creates the named derived tables if absent.
func (db *DB) InitTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		initFn, ok := tableInits[table]
		if !ok {
			return fmt.Errorf("unknown derived table %q", table)
		}
		if err := initFn(db, ctx); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
		db.Logger.Info("Derived table ready", zap.String("table", table))
	}
	return nil
}

// Table returns the fully qualified name of a derived table.
func (db *DB) Table(name string) string {
	return fmt.Sprintf("%s.%s", db.Name, name)
}

// tableInits maps each derived table to its creator. Populated by the
// per-table files' init functions.
var tableInits = map[string]func(*DB, context.Context) error{}

func registerTable(name string, fn func(*DB, context.Context) error) {
	tableInits[name] = fn
}

// TableNames lists every derived table known to the provisioner.
func TableNames() []string {
	names := []string{
		AddressDiffsTable,
		AddressReadsTable,
		AddressFirstAccessTable,
		AddressLastAccessTable,
		SlotFirstAccessTable,
		SlotLastAccessTable,
		AddressSlotsStatTable,
		BlockSlotsStatTable,
		PreDestructsTable,
		PostDestructsTable,
		AccountsAliveTable,
	}
	return names
}
