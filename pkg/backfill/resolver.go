package backfill

import (
	"context"

	"go.uber.org/zap"
)

// Querier is the read side the resolver needs from a store: the highest
// block number present in a table. Implementations must return an error for
// absent or unreadable tables rather than inventing a value.
type Querier interface {
	MaxBlock(ctx context.Context, table string) (uint64, error)
}

// ResolveRange computes the inclusive block interval to process for a target
// table.
//
// The start block is the target's current watermark (its maximum block
// number), 0 when the table is empty or absent. The end block is the minimum
// across all source tables of each source's maximum block, which guarantees
// every source has fully produced data up to the end of the range. Sources
// that cannot be read are excluded from the minimum with a warning; when no
// source is readable the end block is 0 and the caller treats the run as a
// no-op. Absence is never an error here.
func ResolveRange(ctx context.Context, logger *zap.Logger, target, sources Querier, targetTable string, sourceTables []string) (startBlock, endBlock uint64) {
	startBlock, err := target.MaxBlock(ctx, targetTable)
	if err != nil {
		logger.Warn("Could not read target watermark, starting from genesis",
			zap.String("table", targetTable),
			zap.Error(err))
		startBlock = 0
	}

	var (
		haveSource bool
		minMax     uint64
	)
	for _, table := range sourceTables {
		maxBlock, err := sources.MaxBlock(ctx, table)
		if err != nil {
			logger.Warn("Could not get max block from source table",
				zap.String("table", table),
				zap.Error(err))
			continue
		}
		logger.Debug("Source table watermark",
			zap.String("table", table),
			zap.Uint64("max_block", maxBlock))
		if !haveSource || maxBlock < minMax {
			minMax = maxBlock
		}
		haveSource = true
	}
	if haveSource {
		endBlock = minMax
	}

	logger.Info("Block range resolved",
		zap.String("target", targetTable),
		zap.Uint64("start_block", startBlock),
		zap.Uint64("end_block", endBlock))

	return startBlock, endBlock
}
