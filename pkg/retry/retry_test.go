package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}
}

func TestWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), zap.NewNop(), "test_op", func() error {
		calls++
		if calls < 3 {
			return errors.New("i/o timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), zap.NewNop(), "test_op", func() error {
		calls++
		return errors.New("connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestWithBackoffStopsOnNonRetryable(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = IsTransient

	calls := 0
	err := WithBackoff(context.Background(), cfg, zap.NewNop(), "test_op", func() error {
		calls++
		return errors.New("Code: 10. DB::Exception: Not found column address in block")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "fatal errors must not consume retries")
	assert.Contains(t, err.Error(), "non-retryable")
}

func TestWithBackoffRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, fastConfig(3), zap.NewNop(), "test_op", func() error {
		return errors.New("timeout")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixedConfigIsFlat(t *testing.T) {
	cfg := FixedConfig(3, 5*time.Second)
	assert.Equal(t, 5*time.Second, calculateBackoff(cfg, 1))
	assert.Equal(t, 5*time.Second, calculateBackoff(cfg, 2))
	assert.NotNil(t, cfg.RetryIf)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"wrapped net timeout", fmt.Errorf("exec chunk: %w", timeoutErr{}), true},
		{"connect timed out", errors.New("connect timed out after 30s"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:9000: connection refused"), true},
		{"poco", errors.New("Poco_Exception: net exception"), true},
		{"schema mismatch", errors.New("DB::Exception: Type mismatch for column block_number"), false},
		{"malformed data", errors.New("parquet: invalid magic footer"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
