package backfill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore implements TargetStore and Querier over in-memory watermarks.
type fakeStore struct {
	mu        sync.Mutex
	maxBlocks map[string]uint64
	maxErrs   map[string]error
	execSQL   []string
	execErr   error
	execFails int
}

func (f *fakeStore) MaxBlock(_ context.Context, table string) (uint64, error) {
	if err, ok := f.maxErrs[table]; ok {
		return 0, err
	}
	return f.maxBlocks[table], nil
}

func (f *fakeStore) Exec(_ context.Context, query string, _ ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil && f.execFails >= 0 && len(f.execSQL) >= f.execFails {
		return f.execErr
	}
	f.execSQL = append(f.execSQL, query)
	return nil
}

// fakeStrategy records the chunk bounds it was asked to cover. Ranges inside
// [skipFrom, skipTo] produce an empty statement.
type fakeStrategy struct {
	key      string
	chunks   []Range
	skipFrom uint64
	skipTo   uint64
	skipAny  bool
}

func (f *fakeStrategy) Key() string            { return f.key }
func (f *fakeStrategy) TargetTable() string    { return "mainnet.int_" + f.key }
func (f *fakeStrategy) SourceTables() []string { return []string{"default.events"} }
func (f *fakeStrategy) Description() string    { return "fake strategy" }

func (f *fakeStrategy) InsertSQL(start, end uint64) string {
	f.chunks = append(f.chunks, Range{Start: start, End: end})
	if f.skipAny && start >= f.skipFrom && end <= f.skipTo {
		return ""
	}
	return fmt.Sprintf("INSERT INTO %s -- %d-%d", f.TargetTable(), start, end)
}

func uintPtr(v uint64) *uint64 { return &v }

func TestChunks(t *testing.T) {
	t.Run("uneven final chunk", func(t *testing.T) {
		got := Chunks(0, 100, 40)
		require.Equal(t, []Range{{0, 39}, {40, 79}, {80, 100}}, got)
	})

	t.Run("exact multiple", func(t *testing.T) {
		got := Chunks(10, 29, 10)
		require.Equal(t, []Range{{10, 19}, {20, 29}}, got)
	})

	t.Run("single block", func(t *testing.T) {
		require.Equal(t, []Range{{5, 5}}, Chunks(5, 5, 10))
	})

	t.Run("end before start", func(t *testing.T) {
		require.Nil(t, Chunks(10, 9, 10))
	})

	t.Run("zero step falls back to default", func(t *testing.T) {
		got := Chunks(0, DefaultStepSize*2-1, 0)
		require.Equal(t, []Range{{0, DefaultStepSize - 1}, {DefaultStepSize, DefaultStepSize*2 - 1}}, got)
	})

	t.Run("contiguity", func(t *testing.T) {
		got := Chunks(17, 4242, 100)
		require.NotEmpty(t, got)
		assert.Equal(t, uint64(17), got[0].Start)
		assert.Equal(t, uint64(4242), got[len(got)-1].End)
		for i := 1; i < len(got); i++ {
			assert.Equal(t, got[i-1].End+1, got[i].Start)
		}
	})
}

func TestRunnerExecutesChunksInOrder(t *testing.T) {
	store := &fakeStore{}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 40}

	err := r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(0),
		EndBlock:   uintPtr(100),
	})
	require.NoError(t, err)
	require.Equal(t, []Range{{0, 39}, {40, 79}, {80, 100}}, s.chunks)
	require.Len(t, store.execSQL, 3)
}

func TestRunnerNoBlocksToProcess(t *testing.T) {
	store := &fakeStore{}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop()}

	// Equal bounds are a no-op, not a single-block run.
	err := r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(50),
		EndBlock:   uintPtr(50),
	})
	require.NoError(t, err)
	assert.Empty(t, s.chunks)
	assert.Empty(t, store.execSQL)

	err = r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(50),
		EndBlock:   uintPtr(10),
	})
	require.NoError(t, err)
	assert.Empty(t, store.execSQL)
}

func TestRunnerResolvesMissingBounds(t *testing.T) {
	store := &fakeStore{maxBlocks: map[string]uint64{
		"mainnet.int_diffs": 20,
		"default.events":    99,
	}}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 50}

	err := r.Run(context.Background(), s, RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []Range{{20, 69}, {70, 99}}, s.chunks)
}

func TestRunnerSkipsInapplicableChunks(t *testing.T) {
	store := &fakeStore{}
	s := &fakeStrategy{key: "destructs", skipAny: true, skipFrom: 40, skipTo: 79}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 40}

	err := r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(0),
		EndBlock:   uintPtr(100),
	})
	require.NoError(t, err)
	// All three chunks consulted, only two executed.
	require.Equal(t, []Range{{0, 39}, {40, 79}, {80, 100}}, s.chunks)
	require.Len(t, store.execSQL, 2)
}

func TestRunnerPropagatesChunkFailure(t *testing.T) {
	boom := errors.New("poco_exception")
	store := &fakeStore{execErr: boom, execFails: 1}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 40}

	err := r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(0),
		EndBlock:   uintPtr(100),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "blocks 40-79")
	// The run stops at the failing chunk.
	require.Len(t, store.execSQL, 1)
}

func TestRunnerStopsAtChunkBoundaryOnCancel(t *testing.T) {
	store := &fakeStore{}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 40}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, s, RunOptions{
		StartBlock: uintPtr(0),
		EndBlock:   uintPtr(100),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.execSQL)
}

func TestRunnerInsertSQLTargetsStrategyTable(t *testing.T) {
	store := &fakeStore{}
	s := &fakeStrategy{key: "diffs"}
	r := &Runner{Source: store, Target: store, Logger: zap.NewNop(), StepSize: 200}

	err := r.Run(context.Background(), s, RunOptions{
		StartBlock: uintPtr(0),
		EndBlock:   uintPtr(100),
	})
	require.NoError(t, err)
	require.Len(t, store.execSQL, 1)
	assert.True(t, strings.HasPrefix(store.execSQL[0], "INSERT INTO mainnet.int_diffs"))
}
