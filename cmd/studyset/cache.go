package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studyset/internal/database"
	"github.com/at-ishikawa/studyset/internal/studycache"
)

func newCacheCommand() *cobra.Command {
	cacheCommand := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the free-tier study set cache",
	}
	cacheCommand.AddCommand(newCacheKeyCommand())
	return cacheCommand
}

func newCacheKeyCommand() *cobra.Command {
	var source sourceFlags
	command := &cobra.Command{
		Use:   "key",
		Short: "Print the cache key a request is stored under",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			request, err := source.request()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), studycache.Key(cfg.Cache.Namespace, request))
			return err
		},
	}
	source.register(command)
	return command
}

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migration commands",
	}
	migrateCmd.AddCommand(newMigrateCacheSchemaCommand())
	return migrateCmd
}

func newMigrateCacheSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-schema",
		Short: "Create the MySQL table backing the study set cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := database.Connect(cmd.Context(), cfg.Cache.Database)
			if err != nil {
				return fmt.Errorf("database.Connect() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			applied, err := studycache.MigrateSchema(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("studycache.MigrateSchema() > %w", err)
			}
			for _, name := range applied {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}
