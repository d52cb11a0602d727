package studyset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/at-ishikawa/studyset/internal/config"
	"github.com/at-ishikawa/studyset/internal/database"
	"github.com/at-ishikawa/studyset/internal/inference"
	"github.com/at-ishikawa/studyset/internal/inference/gemini"
	"github.com/at-ishikawa/studyset/internal/inference/httpapi"
	"github.com/at-ishikawa/studyset/internal/resilience"
	"github.com/at-ishikawa/studyset/internal/studycache"
)

// CloseFunc releases what a constructor opened.
type CloseFunc func() error

func noop() error { return nil }

// NewBackend builds the configured generation backend.
func NewBackend(ctx context.Context, cfg config.BackendConfig) (inference.Client, CloseFunc, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			SpeechModel: cfg.Gemini.SpeechModel,
			Voice:       cfg.Gemini.Voice,
			Timeout:     cfg.Gemini.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gemini.NewClient() > %w", err)
		}
		slog.Debug("using gemini backend", "model", client.GetModel())
		return client, noop, nil
	case config.ProviderHTTP:
		if cfg.HTTP.BaseURL == "" {
			return nil, nil, fmt.Errorf("backend.http.base_url is required for the http provider")
		}
		client := httpapi.NewClient(cfg.HTTP.BaseURL, cfg.HTTP.APIKey, cfg.HTTP.Timeout)
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// NewStore opens the configured cache store. Network stores are pinged before they are returned.
func NewStore(ctx context.Context, cfg config.CacheConfig) (studycache.Store, CloseFunc, error) {
	switch cfg.Driver {
	case config.CacheDriverFile:
		store, err := studycache.NewFileStore(cfg.File.Directory)
		if err != nil {
			return nil, nil, fmt.Errorf("studycache.NewFileStore() > %w", err)
		}
		return store, noop, nil
	case config.CacheDriverMemory:
		return studycache.NewMemoryStore(), noop, nil
	case config.CacheDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis.Ping(%s) > %w", cfg.Redis.Addr, err)
		}
		return studycache.NewRedisStore(client, cfg.Redis.KeyPrefix), client.Close, nil
	case config.CacheDriverMySQL:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("database.Connect() > %w", err)
		}
		return studycache.NewMySQLStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// NewFromConfig wires a Service from configuration. The returned CloseFunc releases the store and the backend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, CloseFunc, error) {
	executor, err := resilience.NewExecutor(cfg.Retry.Executor())
	if err != nil {
		return nil, nil, fmt.Errorf("resilience.NewExecutor() > %w", err)
	}

	backend, closeBackend, err := NewBackend(ctx, cfg.Backend)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := NewStore(ctx, cfg.Cache)
	if err != nil {
		_ = closeBackend()
		return nil, nil, err
	}

	options := []studycache.Option{studycache.WithNamespace(cfg.Cache.Namespace)}
	if cfg.Cache.CoalesceMisses {
		options = append(options, studycache.WithCoalescing())
	}
	service := NewService(backend, executor, studycache.New(store, options...))
	return service, func() error {
		return errors.Join(closeStore(), closeBackend())
	}, nil
}
