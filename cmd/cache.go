package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/siteselect-cli/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Places response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired Places responses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Store.CachePath == "" {
			return eris.New("cache: store.cache_path is not configured")
		}

		cache, err := store.NewCache(cfg.Store.CachePath)
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Migrate(ctx); err != nil {
			return err
		}

		n, err := cache.Purge(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
