package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-playground/validator/v10"
)

// Config bounds the retry loop.
type Config struct {
	MaxAttempts uint          `validate:"gte=3"`
	BaseDelay   time.Duration `validate:"gt=0"`
	MaxJitter   time.Duration `validate:"gte=0,ltefield=BaseDelay"`
	// MaxDelay caps a single backoff. Zero means no cap.
	MaxDelay time.Duration `validate:"omitempty,gtefield=BaseDelay"`
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

// Executor runs backend calls with bounded exponential backoff.
// It holds no per-call state and is safe for concurrent use.
type Executor struct {
	config Config
	logger *slog.Logger
	jitter func(max time.Duration) time.Duration
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func NewExecutor(config Config, options ...Option) (*Executor, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validator.Struct > %w", err)
	}

	executor := &Executor{
		config: config,
		logger: slog.Default(),
		jitter: randomJitter,
	}
	for _, option := range options {
		option(executor)
	}
	return executor, nil
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// Delay returns the wait before the attempt following failed attempt n (0-based).
// Jitter never exceeds BaseDelay, so delays never decrease as n grows.
func (e *Executor) Delay(n uint) time.Duration {
	delay := time.Duration(math.MaxInt64)
	if n < 62 && e.config.BaseDelay <= time.Duration(math.MaxInt64>>(n+1)) {
		delay = e.config.BaseDelay<<n + e.jitter(e.config.MaxJitter)
	}
	if e.config.MaxDelay > 0 && delay > e.config.MaxDelay {
		delay = e.config.MaxDelay
	}
	return delay
}

// Execute calls fn until it succeeds, fails with a non-retryable error or the attempt budget runs out.
// Every failure is returned as *Error.
func Execute[T any](ctx context.Context, e *Executor, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result   T
		attempts uint
		lastKind = KindFatal
	)
	err := retry.Do(
		func() error {
			attempts++
			value, err := fn(ctx)
			if err != nil {
				lastKind = Classify(err)
				return err
			}
			result = value
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(e.config.MaxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return Classify(err).Retryable()
		}),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return e.Delay(n)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= e.config.MaxAttempts {
				return
			}
			e.logger.Info("Retrying generation backend call",
				"operation", operation,
				"attempt", n+1,
				"kind", lastKind,
				"lastError", err)
		}),
	)
	if err == nil {
		if attempts > 1 {
			e.logger.Info("Generation backend call succeeded after retry",
				"operation", operation,
				"attempts", attempts)
		}
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, &Error{Operation: operation, Kind: KindFatal, Attempts: attempts, Err: ctxErr}
	}
	if lastKind.Retryable() {
		e.logger.Warn("Generation backend call exhausted retries",
			"operation", operation,
			"attempts", attempts,
			"kind", lastKind,
			"error", err)
	}
	return zero, &Error{Operation: operation, Kind: lastKind, Attempts: attempts, Err: err}
}
