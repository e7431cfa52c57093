package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/FlorianHeigl/fastest-pkg/internal/safety"
)

// benchmarkFiles are the repository files tried on each mirror, in order:
// package site index, metadata archive, digest archive and the legacy
// package archive path.
var benchmarkFiles = []string{
	"latest/packagesite.pkg",
	"latest/meta.txz",
	"latest/digests.txz",
	"latest/Latest/pkg.txz",
}

// Prober measures the download rate of a single URL. ok is false when the
// transfer yielded no rate; a non-nil error aborts the benchmark.
type Prober interface {
	Probe(ctx context.Context, url string) (rate float64, ok bool, err error)
}

// BenchmarkURLs returns the candidate file URLs for host in probe order.
func BenchmarkURLs(host, abi string) []string {
	urls := make([]string, 0, len(benchmarkFiles))
	for _, f := range benchmarkFiles {
		urls = append(urls, fmt.Sprintf("http://%s/%s/%s", host, abi, f))
	}
	return urls
}

// Benchmarker probes mirrors and collects one Result per responsive mirror.
type Benchmarker struct {
	prober       Prober
	workers      int
	probeTimeout time.Duration
	logger       *slog.Logger

	// OnResult, when set, is called once for every recorded result. Calls
	// are serialized.
	OnResult func(Result)
}

// NewBenchmarker creates a Benchmarker. workers bounds how many mirrors are
// probed at once; 1 probes them strictly one after another. A zero
// probeTimeout leaves each probe unbounded.
func NewBenchmarker(prober Prober, workers int, probeTimeout time.Duration, logger *slog.Logger) *Benchmarker {
	if workers <= 0 {
		workers = 1
	}
	return &Benchmarker{
		prober:       prober,
		workers:      workers,
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// Run benchmarks the eligible candidates. Results are returned in candidate
// order independent of completion order. The first prober error cancels
// the remaining probes and is returned.
func (b *Benchmarker) Run(ctx context.Context, candidates []Candidate, abi string) ([]Result, error) {
	eligible := Eligible(candidates)
	b.logger.Info("starting benchmark", "mirrors", len(eligible), "skipped", len(candidates)-len(eligible), "workers", b.workers)

	slots := make([]*Result, len(eligible))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, c := range eligible {
		i, c := i, c // per-iteration copies for pre-Go 1.22 loop semantics
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r, err := b.benchmarkMirror(gctx, c.Hostname, abi)
			if err != nil {
				return fmt.Errorf("benchmarking %s: %w", c.Hostname, err)
			}
			if r == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			slots[i] = r
			if b.OnResult != nil {
				b.OnResult(*r)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	b.logger.Info("benchmark complete", "mirrors", len(eligible), "results", len(results))
	return results, nil
}

// benchmarkMirror probes the mirror's URLs in order and stops at the first
// one that yields a rate. It returns nil when none did.
func (b *Benchmarker) benchmarkMirror(ctx context.Context, host, abi string) (*Result, error) {
	for _, u := range BenchmarkURLs(host, abi) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := safety.ValidateHTTPURL(u); err != nil {
			b.logger.Debug("skipping mirror with unusable URL", "mirror", host, "url", u, "error", err)
			return nil, nil
		}

		rate, ok, err := b.probe(ctx, u)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		b.logger.Debug("mirror measured", "mirror", host, "url", u, "rate", humanize.Bytes(uint64(rate))+"/s")
		return &Result{Mirror: host, BytesPerSecond: rate}, nil
	}

	b.logger.Debug("no rate for mirror", "mirror", host)
	return nil, nil
}

// probe runs a single probe, applying the per-probe timeout if one is set.
// A probe that hits its own deadline counts as yielding no rate.
func (b *Benchmarker) probe(ctx context.Context, url string) (float64, bool, error) {
	if b.probeTimeout <= 0 {
		return b.prober.Probe(ctx, url)
	}

	pctx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()

	rate, ok, err := b.prober.Probe(pctx, url)
	if err != nil && ctx.Err() == nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
		b.logger.Debug("probe timed out", "url", url, "timeout", b.probeTimeout)
		return 0, false, nil
	}
	return rate, ok, err
}
