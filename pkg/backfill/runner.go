package backfill

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultStepSize is the number of blocks merged per chunk.
const DefaultStepSize = 10000

// Execer is the write side of the target store: one statement executed as a
// single transactional unit.
type Execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
}

// TargetStore combines the watermark probe with chunk execution.
type TargetStore interface {
	Querier
	Execer
}

// Range is one inclusive chunk of blocks.
type Range struct {
	Start uint64
	End   uint64
}

// Chunks splits [start, end] into consecutive inclusive sub-ranges of at
// most step blocks, ascending, with no gaps and no overlap. The final chunk
// may be shorter.
func Chunks(start, end, step uint64) []Range {
	if end < start {
		return nil
	}
	if step == 0 {
		step = DefaultStepSize
	}
	ranges := make([]Range, 0, (end-start)/step+1)
	for lower := start; ; lower += step {
		upper := end
		if lower+step-1 < end {
			upper = lower + step - 1
		}
		ranges = append(ranges, Range{Start: lower, End: upper})
		if upper == end {
			break
		}
	}
	return ranges
}

// RunOptions overrides the resolved bounds. A nil bound is resolved from the
// strategy's target and source tables.
type RunOptions struct {
	StartBlock *uint64
	EndBlock   *uint64
}

// Runner drives a strategy over its resolved range in fixed-size chunks.
// Chunks execute strictly in ascending order, one blocking write each; the
// chunk boundary is the unit of cancellation.
type Runner struct {
	Source   Querier
	Target   TargetStore
	Logger   *zap.Logger
	StepSize uint64
}

// Run executes the complete backfill for one strategy. A sub-range the
// strategy reports as inapplicable is skipped but still counted as
// processed; a failed chunk aborts the run with the failing range attached.
func (r *Runner) Run(ctx context.Context, s Strategy, opts RunOptions) error {
	step := r.StepSize
	if step == 0 {
		step = DefaultStepSize
	}

	startBlock, endBlock := uint64(0), uint64(0)
	if opts.StartBlock == nil || opts.EndBlock == nil {
		startBlock, endBlock = ResolveRange(ctx, r.Logger, r.Target, r.Source, s.TargetTable(), s.SourceTables())
	}
	if opts.StartBlock != nil {
		startBlock = *opts.StartBlock
	}
	if opts.EndBlock != nil {
		endBlock = *opts.EndBlock
	}

	logger := r.Logger.With(
		zap.String("table", s.Key()),
		zap.String("target", s.TargetTable()),
	)

	logger.Info(s.Description(),
		zap.Strings("sources", s.SourceTables()),
		zap.Uint64("step_size", step))
	if ip, ok := s.(InfoProvider); ok {
		for k, v := range ip.Info() {
			logger.Info("Strategy configuration", zap.String(k, v))
		}
	}

	if endBlock <= startBlock {
		logger.Info("No blocks to process",
			zap.Uint64("start_block", startBlock),
			zap.Uint64("end_block", endBlock))
		return nil
	}

	totalBlocks := endBlock - startBlock + 1
	var blocksProcessed uint64

	logger.Info("Processing range",
		zap.Uint64("start_block", startBlock),
		zap.Uint64("end_block", endBlock),
		zap.Uint64("total_blocks", totalBlocks))

	runStart := time.Now()

	for _, chunk := range Chunks(startBlock, endBlock, step) {
		// An in-flight chunk always runs to completion; interruption takes
		// effect at the chunk boundary.
		select {
		case <-ctx.Done():
			return fmt.Errorf("backfill %s interrupted before blocks %d-%d: %w", s.Key(), chunk.Start, chunk.End, ctx.Err())
		default:
		}

		chunkStart := time.Now()
		insertSQL := s.InsertSQL(chunk.Start, chunk.End)

		skipped := insertSQL == ""
		if !skipped {
			if err := r.Target.Exec(ctx, insertSQL); err != nil {
				logger.Error("Chunk execution failed",
					zap.Uint64("from_block", chunk.Start),
					zap.Uint64("to_block", chunk.End),
					zap.Error(err))
				return fmt.Errorf("backfill %s blocks %d-%d: %w", s.Key(), chunk.Start, chunk.End, err)
			}
		}

		blocksProcessed += chunk.End - chunk.Start + 1
		progress := float64(blocksProcessed) / float64(totalBlocks) * 100

		fields := []zap.Field{
			zap.Uint64("from_block", chunk.Start),
			zap.Uint64("to_block", chunk.End),
			zap.String("progress", fmt.Sprintf("%.2f%%", progress)),
			zap.Duration("took", time.Since(chunkStart)),
		}
		if skipped {
			fields = append(fields, zap.Bool("skipped", true))
		}
		if ra, ok := s.(RangeAnnotator); ok {
			if note := ra.RangeNote(chunk.Start, chunk.End); note != "" {
				fields = append(fields, zap.String("note", note))
			}
		}
		logger.Info("Processed blocks", fields...)
	}

	totalTime := time.Since(runStart)
	rate := float64(0)
	if totalTime.Seconds() > 0 {
		rate = float64(blocksProcessed) / totalTime.Seconds()
	}
	logger.Info("Backfill completed",
		zap.Uint64("blocks_processed", blocksProcessed),
		zap.Duration("total_time", totalTime),
		zap.String("blocks_per_sec", fmt.Sprintf("%.2f", rate)))

	return nil
}
