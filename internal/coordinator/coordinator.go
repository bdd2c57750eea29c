// Package coordinator orchestrates one fetch-aggregate-publish cycle.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/metrics"
	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// Config controls Coordinator behavior.
type Config struct {
	// Concurrency bounds the number of in-flight content fetches.
	Concurrency int
	// CycleBudget is the wall-clock limit for the whole fan-out.
	CycleBudget time.Duration
}

// Coordinator runs fetch cycles: list titles, fan out bounded concurrent
// content fetches, aggregate the successes, and publish a snapshot.
type Coordinator struct {
	client tracker.CatalogClient
	store  tracker.SnapshotStore
	clock  tracker.Clock
	cfg    Config
	logger *zap.Logger
}

// New constructs a Coordinator.
func New(
	client tracker.CatalogClient,
	store tracker.SnapshotStore,
	clock tracker.Clock,
	cfg Config,
	logger *zap.Logger,
) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.CycleBudget <= 0 {
		cfg.CycleBudget = 300 * time.Second
	}
	return &Coordinator{
		client: client,
		store:  store,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// RunCycle executes one end-to-end cycle. On tracker.ErrNoTitles,
// tracker.ErrNoContent, or a publish failure the store is left exactly
// as it was; individual fetch failures are isolated and the snapshot is
// built from whatever succeeded.
func (c *Coordinator) RunCycle(ctx context.Context) (tracker.Snapshot, error) {
	start := c.clock.Now()
	c.logger.Info("starting fetch cycle")

	titles, err := c.client.ListTitles(ctx)
	if err != nil || len(titles) == 0 {
		c.logger.Error("no titles fetched, aborting cycle", zap.Error(err))
		metrics.ObserveCycle("no_titles", c.clock.Now().Sub(start))
		return tracker.Snapshot{}, tracker.ErrNoTitles
	}

	sizes := c.fetchAll(ctx, titles)
	if len(sizes) == 0 {
		c.logger.Error("no title contents fetched, aborting cycle",
			zap.Int("titles", len(titles)))
		metrics.ObserveCycle("no_content", c.clock.Now().Sub(start))
		return tracker.Snapshot{}, tracker.ErrNoContent
	}

	agencies := tracker.Aggregate(sizes, c.clock.Now())

	var totalMB float64
	for _, a := range agencies {
		totalMB += a.RegulationSizeMB
	}
	now := c.clock.Now()
	snapshot := tracker.Snapshot{
		Agencies:             agencies,
		TotalAgencies:        len(agencies),
		TotalSizeMB:          tracker.RoundMB(totalMB),
		LastSync:             tracker.FormatTime(now),
		FetchDurationSeconds: now.Sub(start).Seconds(),
	}

	if err := c.store.Publish(ctx, snapshot); err != nil {
		c.logger.Error("snapshot publish failed", zap.Error(err))
		metrics.ObserveCycle("publish_failed", c.clock.Now().Sub(start))
		return tracker.Snapshot{}, fmt.Errorf("publish snapshot: %w", err)
	}

	metrics.ObserveCycle("success", c.clock.Now().Sub(start))
	metrics.SetSnapshotSize(snapshot.TotalSizeMB)
	c.logger.Info("fetch cycle completed",
		zap.Int("agencies", snapshot.TotalAgencies),
		zap.Float64("total_size_mb", snapshot.TotalSizeMB),
		zap.Float64("duration_seconds", snapshot.FetchDurationSeconds),
	)
	return snapshot, nil
}

// fetchAll fans out content fetches with a semaphore bounding in-flight
// requests and one overall wall-clock budget. Results are collected in
// title order so aggregation output is stable run to run.
func (c *Coordinator) fetchAll(ctx context.Context, titles []tracker.TitleDescriptor) []tracker.TitleSize {
	fanCtx, cancel := context.WithTimeout(ctx, c.cfg.CycleBudget)
	defer cancel()

	semaphore := make(chan struct{}, c.cfg.Concurrency)
	var wg sync.WaitGroup
	results := make([]*tracker.TitleSize, len(titles))

	c.logger.Info("fetching content for titles",
		zap.Int("count", len(titles)),
		zap.Int("concurrency", c.cfg.Concurrency),
	)

	for i, title := range titles {
		if title.Number == 0 {
			continue
		}
		wg.Add(1)
		go func(idx int, td tracker.TitleDescriptor) {
			defer wg.Done()
			// No single bad title may abort the whole cycle.
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.Error("title fetch panicked",
						zap.Int("title", td.Number),
						zap.Any("panic", rec),
					)
					metrics.ObserveTitleFetch("panic")
				}
			}()

			select {
			case semaphore <- struct{}{}:
			case <-fanCtx.Done():
				metrics.ObserveTitleFetch("abandoned")
				return
			}
			defer func() { <-semaphore }()

			ts, err := c.client.FetchTitleContent(fanCtx, td.Number)
			if err != nil {
				c.logger.Warn("title fetch failed",
					zap.Int("title", td.Number), zap.Error(err))
				metrics.ObserveTitleFetch("failed")
				return
			}
			metrics.ObserveTitleFetch("ok")
			results[idx] = &ts
		}(i, title)
	}

	wg.Wait()

	sizes := make([]tracker.TitleSize, 0, len(titles))
	for _, r := range results {
		if r != nil {
			sizes = append(sizes, *r)
		}
	}
	c.logger.Info("title fetch fan-out finished",
		zap.Int("succeeded", len(sizes)),
		zap.Int("attempted", len(titles)),
	)
	return sizes
}
