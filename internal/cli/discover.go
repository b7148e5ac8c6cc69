package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/censys/sigint/internal/config"
	"github.com/censys/sigint/internal/discovery/cache"
	discoveryengine "github.com/censys/sigint/internal/discovery/engine"
	"github.com/censys/sigint/internal/discovery/planner"
	"github.com/censys/sigint/internal/discovery/plugins/censys"
	"github.com/censys/sigint/internal/discovery/plugins/shodan"
	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/fingerprint"
	"github.com/censys/sigint/internal/enrich/ipinfo"
	clienthttp "github.com/censys/sigint/internal/pkg/clients/http"
	pkglog "github.com/censys/sigint/internal/pkg/log"
	"github.com/censys/sigint/internal/report"
)

func newDiscoverCommand(a *app) *cobra.Command {
	var (
		outPath string
		enrich  bool
	)

	cmd := &cobra.Command{
		Use:   "discover <fingerprint-file>",
		Short: "Plan queries from a fingerprint and search configured sources for candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := fingerprint.LoadFile(args[0])
			if err != nil {
				return err
			}

			httpClient := clienthttp.New(clienthttp.Options{
				RequestTimeout: a.runtime.Timeout,
				UserAgent:      a.runtime.UserAgent,
				Logger:         pkglog.Component(a.logger, "http"),
				Retry: config.RetryStrategy{
					MaxAttempts: 2,
					BaseDelay:   500 * time.Millisecond,
					MaxDelay:    30 * time.Second,
					Backoff:     config.BackoffFixed,
				},
			})

			registry := discovery.NewRegistry()
			if err := registry.Register(shodan.New(httpClient, pkglog.Component(a.logger, "shodan"))); err != nil {
				return err
			}
			if err := registry.Register(censys.New(httpClient, pkglog.Component(a.logger, "censys"))); err != nil {
				return err
			}

			store, err := cache.New(a.runtime.CacheDir, time.Duration(a.runtime.CacheTTLDays)*24*time.Hour)
			if err != nil {
				return err
			}

			var enricher discoveryengine.Enricher
			if enrich {
				enricher = ipinfo.New(filepath.Join(a.runtime.CacheDir, "ipinfo"), time.Duration(a.runtime.CacheTTLDays)*24*time.Hour, httpClient)
			}

			eng := discoveryengine.New(registry, store, pkglog.Component(a.logger, "discovery"), enricher)

			queries := planner.Plan(output.FingerprintSpec, a.runtime.MaxQueries)
			if len(queries) == 0 {
				return fmt.Errorf("discover: fingerprint produced no usable queries")
			}

			result := eng.Discover(cmd.Context(), queries, discoveryengine.Options{
				Strategy:      discoveryengine.CacheAndNew,
				Enrich:        enrich,
				EnrichWorkers: a.runtime.EnrichWorkers,
			})

			for _, outcome := range result.Outcomes {
				if outcome.Error != "" {
					a.logger.Warn("query failed", "plugin", outcome.Plugin, "query", outcome.Query.Value, "error", outcome.Error)
				}
			}

			candidates := report.NewCandidates(output.FingerprintSpec.RunID, time.Now(), result.Candidates)
			if err := report.WriteCandidatesFile(outPath, candidates); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d candidates to %s (%d cloud-hosted)\n", candidates.TotalCandidates, outPath, result.CloudHosted)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "candidates.json", "path to write the candidates file")
	cmd.Flags().BoolVar(&enrich, "enrich", true, "enrich candidates with IPInfo geo/ASN/hosting-provider metadata")

	return cmd
}
