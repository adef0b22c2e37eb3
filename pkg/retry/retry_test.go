package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConn = errors.New("connection refused")

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestDo_RetriesUpToBound(t *testing.T) {
	p := New(2, 1500*time.Millisecond, WithSleeper(noSleep))

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errConn
	}, func(err error) bool { return true })

	require.ErrorIs(t, err, errConn)
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
}

func TestDo_StopsOnSuccess(t *testing.T) {
	p := New(2, time.Second, WithSleeper(noSleep))

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errConn
		}
		return nil
	}, func(err error) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_TerminalErrorNotRetried(t *testing.T) {
	p := New(5, time.Second, WithSleeper(noSleep))
	terminal := errors.New("401 bad credentials")

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return terminal
	}, func(err error) bool { return errors.Is(err, errConn) })

	require.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts, "an explicit error response is never retried")
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	p := New(3, time.Minute, WithSleeper(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errConn
	}, func(err error) bool { return true })

	require.ErrorIs(t, err, errConn, "returns the operation error, not the sleep error")
	assert.Equal(t, 1, attempts)
}

func TestDo_ZeroValueSingleAttempt(t *testing.T) {
	var p Policy

	attempts := 0
	_ = p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errConn
	}, func(err error) bool { return true })

	assert.Equal(t, 1, attempts)
}
