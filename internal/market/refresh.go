package market

import (
	"context"
	"fmt"
	"log/slog"
)

// SnapshotLister provides the current snapshot per ticker from storage.
type SnapshotLister interface {
	LatestSnapshots(ctx context.Context, limit int) ([]Snapshot, error)
}

// RefreshSnapshots pushes the latest stored price per ticker into the
// cache and returns how many entries were written. A single bad entry
// aborts the refresh so a stale cache is noticed instead of silently
// serving partial data.
func RefreshSnapshots(ctx context.Context, lister SnapshotLister, cache *SnapshotCache, limit int, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snapshots, err := lister.LatestSnapshots(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load snapshots: %w", err)
	}

	for i, snap := range snapshots {
		if err := cache.Set(ctx, snap); err != nil {
			return i, fmt.Errorf("failed to cache snapshot for %s: %w", snap.Ticker, err)
		}
	}

	logger.Info("market snapshots refreshed", "count", len(snapshots))
	return len(snapshots), nil
}
