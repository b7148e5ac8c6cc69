package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/censys/sigint/internal/discovery/cache"
)

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the discovery query cache",
	}

	cmd.AddCommand(newCacheStatsCommand(a), newCacheClearCommand(a))
	return cmd
}

func newCacheStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show discovery cache size and freshness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cache.New(a.runtime.CacheDir, time.Duration(a.runtime.CacheTTLDays)*24*time.Hour)
			if err != nil {
				return err
			}
			stats := store.Stats()

			fmt.Fprintf(cmd.OutOrStdout(), "queries: %d (%d valid, %d expired)\n", stats.TotalQueries, stats.ValidQueries, stats.ExpiredQueries)
			fmt.Fprintf(cmd.OutOrStdout(), "candidates: %d\n", stats.TotalCandidates)
			for platform, count := range stats.ByPlatform {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d queries\n", platform, count)
			}
			if stats.OldestCache != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "oldest: %s\n", stats.OldestCache.Format(time.RFC3339))
			}
			if stats.NewestCache != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "newest: %s\n", stats.NewestCache.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newCacheClearCommand(a *app) *cobra.Command {
	var expiredOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached query results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cache.New(a.runtime.CacheDir, time.Duration(a.runtime.CacheTTLDays)*24*time.Hour)
			if err != nil {
				return err
			}
			removed, kept := store.Clear(expiredOnly)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries, %d kept\n", removed, kept)
			return nil
		},
	}

	cmd.Flags().BoolVar(&expiredOnly, "expired-only", false, "only remove entries past their TTL")
	return cmd
}
