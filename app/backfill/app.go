// Package backfill wires the backfill engine: both database connections, the
// strategy registry, the chunk runner and the snapshot loader, configured
// from the environment.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/weiihann/backfill-state-dashboard/pkg/backfill"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/derived"
	"github.com/weiihann/backfill-state-dashboard/pkg/db/source"
	"github.com/weiihann/backfill-state-dashboard/pkg/loader"
	"github.com/weiihann/backfill-state-dashboard/pkg/logging"
	"github.com/weiihann/backfill-state-dashboard/pkg/utils"
)

// App holds the wired components.
type App struct {
	Logger   *zap.Logger
	SourceDB *source.DB
	TargetDB *derived.DB
	Registry *backfill.Registry
	Runner   *backfill.Runner
}

// Initialize connects both databases and builds the strategy set.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	sourceDSN := utils.Env("SOURCE_CLICKHOUSE_ADDR", "localhost:9000")
	targetDSN := utils.Env("TARGET_CLICKHOUSE_ADDR", sourceDSN)
	targetDatabase := utils.Env("TARGET_DATABASE", "mainnet")
	stepSize := utils.EnvInt("BACKFILL_STEP_SIZE", backfill.DefaultStepSize)

	sourceDb, err := source.New(ctx, logger, sourceDSN)
	if err != nil {
		logger.Fatal("Unable to connect to source database", zap.Error(err))
	}

	targetDb, err := derived.New(ctx, logger, targetDSN, targetDatabase)
	if err != nil {
		logger.Fatal("Unable to connect to target database", zap.Error(err))
	}

	return &App{
		Logger:   logger,
		SourceDB: sourceDb,
		TargetDB: targetDb,
		Registry: backfill.NewRegistry(targetDb.Name, backfill.MainnetEras()),
		Runner: &backfill.Runner{
			Source:   &sourceDb.Client,
			Target:   &targetDb.Client,
			Logger:   logger,
			StepSize: uint64(stepSize),
		},
	}
}

// Close releases both database connections.
func (a *App) Close() {
	if err := a.SourceDB.Close(); err != nil {
		a.Logger.Warn("Closing source connection", zap.Error(err))
	}
	if err := a.TargetDB.Close(); err != nil {
		a.Logger.Warn("Closing target connection", zap.Error(err))
	}
}

// Strategies resolves keys into strategies, or the full registry when all is
// set.
func (a *App) Strategies(keys []string, all bool) ([]backfill.Strategy, error) {
	if all {
		keys = a.Registry.Keys()
	}
	if len(keys) == 0 {
		return nil, errors.New("no tables selected, pass --tables or --all")
	}
	strategies := make([]backfill.Strategy, 0, len(keys))
	for _, key := range keys {
		s, err := a.Registry.Get(key)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// RunResult is the outcome of one strategy in a batch run.
type RunResult struct {
	Key  string
	Took time.Duration
	Err  error
}

// RunAll executes each strategy in turn. A failing strategy is recorded and
// the batch continues; the error return is non-nil when any strategy failed.
func (a *App) RunAll(ctx context.Context, strategies []backfill.Strategy, opts backfill.RunOptions) ([]RunResult, error) {
	results := make([]RunResult, 0, len(strategies))
	failed := 0

	for _, s := range strategies {
		start := time.Now()
		err := a.Runner.Run(ctx, s, opts)
		results = append(results, RunResult{Key: s.Key(), Took: time.Since(start), Err: err})
		if err != nil {
			failed++
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
		}
	}

	for _, r := range results {
		if r.Err != nil {
			a.Logger.Error("Table backfill failed",
				zap.String("table", r.Key),
				zap.Duration("took", r.Took),
				zap.Error(r.Err))
			continue
		}
		a.Logger.Info("Table backfill succeeded",
			zap.String("table", r.Key),
			zap.Duration("took", r.Took))
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d tables failed", failed, len(strategies))
	}
	return results, nil
}

// NewLoader builds the snapshot loader against the target connection.
func (a *App) NewLoader() *loader.Loader {
	return &loader.Loader{
		Store:  &loader.ClickHouseStore{Client: &a.TargetDB.Client},
		Logger: a.Logger,
	}
}
