package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/censys/sigint/internal/domain/discovery"
)

// enrich looks up unique IPs across result via e.Enricher with a
// bounded worker pool, filling only empty fields on each candidate and
// never overwriting data the plugin already supplied.
func (e *Engine) enrich(ctx context.Context, result []discovery.CandidateHost, workers int) ([]discovery.CandidateHost, int) {
	if workers <= 0 {
		workers = 20
	}

	unique := map[string]struct{}{}
	for _, c := range result {
		unique[c.IP] = struct{}{}
	}

	sem := semaphore.NewWeighted(int64(workers))
	group, gctx := errgroup.WithContext(ctx)
	enriched := make(map[string]discovery.CandidateHost, len(unique))
	var mu sync.Mutex

	for ip := range unique {
		ip := ip
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			info, err := e.Enricher.Enrich(gctx, ip)
			if err != nil {
				if e.Logger != nil {
					e.Logger.Debug("ipinfo lookup failed", "ip", ip, "error", err)
				}
				return nil
			}

			mu.Lock()
			enriched[ip] = info
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	now := e.Now()
	cloudHosted := 0
	out := make([]discovery.CandidateHost, len(result))
	for i, c := range result {
		info, ok := enriched[c.IP]
		if !ok {
			out[i] = c
			continue
		}

		if c.HostingProvider == "" {
			c.HostingProvider = info.HostingProvider
		}
		if !c.IsCloudHosted {
			c.IsCloudHosted = info.IsCloudHosted
		}
		if len(c.Location) == 0 && len(info.Location) > 0 {
			c.Location = info.Location
		}
		if c.Hostname == "" {
			c.Hostname = info.Hostname
		}
		if c.Organization == "" {
			c.Organization = info.Organization
		}
		if c.ASN == "" {
			c.ASN = info.ASN
		}
		c.EnrichedAt = &now

		if c.IsCloudHosted {
			cloudHosted++
		}
		out[i] = c
	}

	return out, cloudHosted
}
