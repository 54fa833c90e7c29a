package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enerhub/edi_services/internal/outbox_service/repository"
)

// BundleSweeper closes accumulating bundles that have passed the age cutoff
// so they become visible to peek even when never filled to capacity.
type BundleSweeper struct {
	db         repository.Querier
	bundles    repository.BundleRepository
	closeAfter time.Duration
	logger     *slog.Logger
}

func NewBundleSweeper(db repository.Querier, bundles repository.BundleRepository,
	closeAfter time.Duration, logger *slog.Logger) *BundleSweeper {
	return &BundleSweeper{
		db:         db,
		bundles:    bundles,
		closeAfter: closeAfter,
		logger:     logger.With("service", "bundle_sweeper"),
	}
}

// SweepOnce closes every open bundle created before now-closeAfter and
// returns how many were closed.
func (s *BundleSweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	closed, err := s.bundles.CloseBundlesOlderThan(ctx, s.db, now.Add(-s.closeAfter), now)
	if err != nil {
		return 0, fmt.Errorf("close over-age bundles: %w", err)
	}
	if closed > 0 {
		bundlesSweptCounter.Add(float64(closed))
		s.logger.InfoContext(ctx, "Closed over-age bundles", "count", closed, "cutoff", now.Add(-s.closeAfter))
	} else {
		s.logger.DebugContext(ctx, "No over-age bundles to close")
	}
	return closed, nil
}

// Run sweeps on the given interval until the context is cancelled. Sweep
// failures are logged and the loop continues; the next tick retries.
func (s *BundleSweeper) Run(ctx context.Context, interval time.Duration) {
	s.logger.InfoContext(ctx, "Bundle sweeper started", "interval", interval, "close_after", s.closeAfter)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Bundle sweeper stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Sweep cycle failed", "error", err)
			}
		}
	}
}
