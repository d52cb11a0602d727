package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func newTestExecutor(t *testing.T, config Config) *Executor {
	t.Helper()
	executor, err := NewExecutor(config)
	require.NoError(t, err)
	return executor
}

// failingThenSucceeding returns errs in order and then "ok".
func failingThenSucceeding(errs ...error) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= len(errs) {
			return "", errs[calls-1]
		}
		return "ok", nil
	}, &calls
}

func TestNewExecutor(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "with max delay", config: Config{MaxAttempts: 3, BaseDelay: time.Second, MaxJitter: 0, MaxDelay: 10 * time.Second}},
		{name: "too few attempts", config: Config{MaxAttempts: 2, BaseDelay: time.Second}, wantErr: true},
		{name: "no base delay", config: Config{MaxAttempts: 3}, wantErr: true},
		{name: "jitter larger than base delay", config: Config{MaxAttempts: 3, BaseDelay: time.Second, MaxJitter: 2 * time.Second}, wantErr: true},
		{name: "max delay below base delay", config: Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Millisecond}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutor(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExecute_RetryBound(t *testing.T) {
	rateLimited := &inference.APIError{StatusCode: 429}
	overloaded := errors.New("model is overloaded")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
	}{
		{name: "no failure", failures: nil, wantCalls: 1},
		{name: "one rate limit", failures: []error{rateLimited}, wantCalls: 2},
		{name: "mixed transient failures", failures: []error{overloaded, rateLimited, overloaded}, wantCalls: 4},
		{name: "one below the bound", failures: []error{overloaded, overloaded, overloaded, overloaded}, wantCalls: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := newTestExecutor(t, testConfig())
			fn, calls := failingThenSucceeding(tt.failures...)

			got, err := Execute(context.Background(), executor, "generate", fn)
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Equal(t, tt.wantCalls, *calls)
		})
	}
}

func TestExecute_Exhaustion(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      Kind
		wantRateLimit bool
	}{
		{
			name:          "rate limited",
			err:           &inference.APIError{StatusCode: 429, Status: "RESOURCE_EXHAUSTED"},
			wantKind:      KindRateLimited,
			wantRateLimit: true,
		},
		{
			name:     "overloaded degrades to a generic failure",
			err:      &inference.APIError{StatusCode: 503, Status: "UNAVAILABLE"},
			wantKind: KindOverloaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := newTestExecutor(t, testConfig())
			calls := 0
			_, err := Execute(context.Background(), executor, "generate", func(context.Context) (int, error) {
				calls++
				return 0, tt.err
			})

			require.Error(t, err)
			assert.Equal(t, 5, calls)

			var executeErr *Error
			require.ErrorAs(t, err, &executeErr)
			assert.Equal(t, tt.wantKind, executeErr.Kind)
			assert.Equal(t, uint(5), executeErr.Attempts)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, ErrRateLimited))
			assert.Equal(t, !tt.wantRateLimit, errors.Is(err, ErrRequestFailed))
		})
	}
}

func TestExecute_FatalShortCircuit(t *testing.T) {
	fatalErrors := []error{
		errors.New("unexpected end of JSON input"),
		&inference.APIError{StatusCode: 400, Status: "INVALID_ARGUMENT"},
		inference.ErrInvalidResponse,
	}

	for _, fatal := range fatalErrors {
		t.Run(fatal.Error(), func(t *testing.T) {
			executor := newTestExecutor(t, Config{MaxAttempts: 6, BaseDelay: time.Hour})
			fn, calls := failingThenSucceeding(fatal)

			start := time.Now()
			_, err := Execute(context.Background(), executor, "chat", fn)
			require.Error(t, err)
			assert.Equal(t, 1, *calls)
			assert.Less(t, time.Since(start), time.Minute)

			var executeErr *Error
			require.ErrorAs(t, err, &executeErr)
			assert.Equal(t, KindFatal, executeErr.Kind)
			assert.Equal(t, uint(1), executeErr.Attempts)
			assert.ErrorIs(t, err, fatal)
			assert.ErrorIs(t, err, ErrRequestFailed)
		})
	}
}

func TestExecute_FatalAfterTransient(t *testing.T) {
	executor := newTestExecutor(t, testConfig())
	fn, calls := failingThenSucceeding(errors.New("503 service unavailable"), errors.New("schema mismatch"))

	_, err := Execute(context.Background(), executor, "explain", fn)
	require.Error(t, err)
	assert.Equal(t, 2, *calls)

	var executeErr *Error
	require.ErrorAs(t, err, &executeErr)
	assert.Equal(t, KindFatal, executeErr.Kind)
}

func TestExecute_ContextCancelledDuringBackoff(t *testing.T) {
	executor := newTestExecutor(t, Config{MaxAttempts: 5, BaseDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Execute(ctx, executor, "speak", func(context.Context) (string, error) {
			calls++
			return "", &inference.APIError{StatusCode: 429}
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestExecutor_DelayIsMonotonic(t *testing.T) {
	configs := []Config{
		DefaultConfig(),
		{MaxAttempts: 6, BaseDelay: 1500 * time.Millisecond, MaxJitter: 1500 * time.Millisecond},
		{MaxAttempts: 4, BaseDelay: 4 * time.Second, MaxJitter: time.Second, MaxDelay: 20 * time.Second},
	}

	for _, config := range configs {
		executor := newTestExecutor(t, config)
		for trial := 0; trial < 200; trial++ {
			previous := time.Duration(0)
			for n := uint(0); n < 70; n++ {
				delay := executor.Delay(n)
				require.GreaterOrEqual(t, delay, previous, "delay before attempt %d decreased", n+1)
				if config.MaxDelay > 0 {
					require.LessOrEqual(t, delay, config.MaxDelay)
				}
				previous = delay
			}
		}
	}
}

func TestExecutor_DelayDoubles(t *testing.T) {
	executor := newTestExecutor(t, Config{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxJitter: 500 * time.Millisecond})
	executor.jitter = func(time.Duration) time.Duration { return 0 }

	assert.Equal(t, 2*time.Second, executor.Delay(0))
	assert.Equal(t, 4*time.Second, executor.Delay(1))
	assert.Equal(t, 8*time.Second, executor.Delay(2))
	assert.Equal(t, 16*time.Second, executor.Delay(3))
}

func TestExecute_Concurrent(t *testing.T) {
	executor := newTestExecutor(t, testConfig())

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := 0
			got, err := Execute(context.Background(), executor, "generate", func(context.Context) (int, error) {
				attempt++
				if attempt < 3 {
					return 0, errors.New("overloaded")
				}
				return i, nil
			})
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, i, got)
	}
}
