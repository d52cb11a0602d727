package main

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/studyset/internal/config"
	"github.com/at-ishikawa/studyset/internal/studyset"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

func newService(ctx context.Context, cfg *config.Config) (*studyset.Service, studyset.CloseFunc, error) {
	service, closeService, err := studyset.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("studyset.NewFromConfig() > %w", err)
	}
	return service, closeService, nil
}
