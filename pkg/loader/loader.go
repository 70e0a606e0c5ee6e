// Package loader bulk-loads externally produced account snapshot files into
// the target database. Each parquet file is read in row batches and inserted
// through the native batch protocol; transient failures are retried with a
// fixed delay, and one bad file never aborts the rest of the batch.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/weiihann/backfill-state-dashboard/pkg/retry"
)

const (
	// DefaultBatchSize is the number of rows appended per insert batch.
	DefaultBatchSize = 1_000_000

	// DefaultPacing is the pause after each successfully loaded file. The
	// snapshot set is large enough that back-to-back bulk inserts starve
	// merges on the receiving end.
	DefaultPacing = 500 * time.Millisecond

	defaultRetryAttempts = 3
	defaultRetryDelay    = 5 * time.Second
)

// Account is one row of a plain account snapshot file.
type Account struct {
	Address  string `parquet:"address"`
	Nonce    uint64 `parquet:"nonce"`
	Balance  string `parquet:"balance"`
	CodeHash string `parquet:"code_hash,optional"`
}

// Store is the write side the loader needs.
type Store interface {
	TableExists(ctx context.Context, table string) (bool, error)
	InsertAccounts(ctx context.Context, table string, rows []Account) error
}

// FileResult is the outcome of loading one file.
type FileResult struct {
	File string
	Rows int
	Took time.Duration
	Err  error
}

// Summary aggregates the outcome of a directory load.
type Summary struct {
	Results   []FileResult
	TotalRows int
	TotalTime time.Duration
}

// Failed returns the results of files that did not load.
func (s *Summary) Failed() []FileResult {
	var failed []FileResult
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Loader drives the snapshot load. Zero values fall back to the defaults
// above.
type Loader struct {
	Store     Store
	Logger    *zap.Logger
	BatchSize int
	Pacing    time.Duration
	Retry     retry.Config
}

// ParquetFiles lists the parquet files under dir in lexical order.
func ParquetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan snapshot directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir loads every parquet file under dir into table. Per-file failures
// are collected into the summary rather than returned; the error return
// covers conditions that prevent the load from starting at all.
func (l *Loader) LoadDir(ctx context.Context, dir, table string) (*Summary, error) {
	exists, err := l.Store.TableExists(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("check table %s: %w", table, err)
	}
	if !exists {
		return nil, fmt.Errorf("table %s does not exist, create it first", table)
	}

	files, err := ParquetFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files found in %s", dir)
	}

	l.Logger.Info("Loading snapshot files",
		zap.String("dir", dir),
		zap.String("table", table),
		zap.Int("files", len(files)))

	summary := &Summary{Results: make([]FileResult, 0, len(files))}
	start := time.Now()

	for i, file := range files {
		select {
		case <-ctx.Done():
			summary.TotalTime = time.Since(start)
			return summary, ctx.Err()
		default:
		}

		name := filepath.Base(file)
		fileStart := time.Now()
		rows, err := l.loadFile(ctx, file, table)
		result := FileResult{File: name, Rows: rows, Took: time.Since(fileStart), Err: err}
		summary.Results = append(summary.Results, result)

		progress := float64(i+1) / float64(len(files)) * 100
		if err != nil {
			l.Logger.Error("Snapshot file failed",
				zap.String("file", name),
				zap.String("progress", fmt.Sprintf("%.2f%%", progress)),
				zap.Error(err))
			continue
		}

		summary.TotalRows += rows
		l.Logger.Info("Snapshot file loaded",
			zap.String("file", name),
			zap.Int("rows", rows),
			zap.String("progress", fmt.Sprintf("%.2f%%", progress)),
			zap.Duration("took", result.Took))

		if pacing := l.pacing(); pacing > 0 && i < len(files)-1 {
			select {
			case <-ctx.Done():
				summary.TotalTime = time.Since(start)
				return summary, ctx.Err()
			case <-time.After(pacing):
			}
		}
	}

	summary.TotalTime = time.Since(start)
	l.logSummary(summary, len(files))
	return summary, nil
}

// loadFile reads one parquet file in batches and inserts each batch, with
// transient insert failures retried.
func (l *Loader) loadFile(ctx context.Context, path, table string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Account](f)
	defer reader.Close()

	batch := make([]Account, l.batchSize())
	total := 0
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			rows := batch[:n]
			if insertErr := l.insertWithRetry(ctx, table, rows, filepath.Base(path)); insertErr != nil {
				return total, insertErr
			}
			total += n
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
	}
}

func (l *Loader) insertWithRetry(ctx context.Context, table string, rows []Account, name string) error {
	cfg := l.Retry
	if cfg.MaxAttempts == 0 {
		cfg = retry.FixedConfig(defaultRetryAttempts, defaultRetryDelay)
	}
	return retry.WithBackoff(ctx, cfg, l.Logger, "insert "+name, func() error {
		return l.Store.InsertAccounts(ctx, table, rows)
	})
}

func (l *Loader) batchSize() int {
	if l.BatchSize > 0 {
		return l.BatchSize
	}
	return DefaultBatchSize
}

func (l *Loader) pacing() time.Duration {
	if l.Pacing > 0 {
		return l.Pacing
	}
	return DefaultPacing
}

func (l *Loader) logSummary(s *Summary, totalFiles int) {
	failed := s.Failed()
	successful := totalFiles - len(failed)

	fields := []zap.Field{
		zap.Int("files", totalFiles),
		zap.Int("successful", successful),
		zap.Int("failed", len(failed)),
		zap.String("success_rate", fmt.Sprintf("%.1f%%", float64(successful)/float64(totalFiles)*100)),
		zap.Int("total_rows", s.TotalRows),
		zap.Duration("total_time", s.TotalTime),
	}
	if s.TotalTime.Seconds() > 0 {
		fields = append(fields, zap.String("rows_per_sec",
			fmt.Sprintf("%.0f", float64(s.TotalRows)/s.TotalTime.Seconds())))
	}
	l.Logger.Info("Snapshot load completed", fields...)

	for _, r := range failed {
		msg := r.Err.Error()
		if len(msg) > 200 {
			msg = msg[:200]
		}
		l.Logger.Error("Failed file", zap.String("file", r.File), zap.String("error", msg))
	}
}
