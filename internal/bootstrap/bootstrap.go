// Package bootstrap runs a long-lived process and tears it down on interrupt.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 10 * time.Second

// App owns the shutdown hooks of a process.
type App struct {
	mu              sync.Mutex
	hooks           []namedHook
	shutdownTimeout time.Duration
	signals         []os.Signal
	logger          *slog.Logger
}

type namedHook struct {
	name string
	fn   func(ctx context.Context) error
}

type Option func(*App)

// WithShutdownTimeout bounds the time all hooks share. Zero or less keeps the default.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(a *App) {
		if timeout > 0 {
			a.shutdownTimeout = timeout
		}
	}
}

func WithSignals(signals ...os.Signal) Option {
	return func(a *App) {
		a.signals = signals
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

func New(opts ...Option) *App {
	a := &App{
		shutdownTimeout: DefaultShutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddShutdownHook registers fn under name. Hooks run in reverse registration order.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, namedHook{name: name, fn: fn})
}

// Run calls run and waits for it to return or for ctx to end.
// Hooks run whenever ctx ended, including when run noticed it first and returned nil.
// An error from run is returned as is and skips the hooks.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, a.signals...)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errCh:
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return a.shutdown()
		}
		return nil
	}
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.mu.Lock()
	hooks := make([]namedHook, len(a.hooks))
	copy(hooks, a.hooks)
	a.mu.Unlock()

	a.logger.Info("shutting down", "hooks", len(hooks), "timeout", a.shutdownTimeout)
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			a.logger.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
