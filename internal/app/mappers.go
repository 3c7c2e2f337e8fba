package app

import (
	"time"

	"github.com/google/uuid"

	"transparent_roi/internal/domain"
)

func aggregatedSnapshot(f domain.QueryFilters, a domain.AggregatedResult, at time.Time) domain.Snapshot {
	return domain.Snapshot{
		ID:               uuid.NewString(),
		Kind:             domain.KindAggregated,
		Filters:          f,
		AverageDailyRate: a.AverageDailyRate,
		OccupancyRate:    a.OccupancyRate,
		CreatedAt:        at.UTC(),
	}
}

func combinedSnapshot(f domain.QueryFilters, c domain.CombinedResult, at time.Time) domain.Snapshot {
	snap := aggregatedSnapshot(f, c.Aggregated, at)
	snap.Kind = domain.KindCombined
	// copy so later edits by the caller don't reach the stored history
	snap.Listings = append([]domain.ListingResult(nil), c.Listings...)
	return snap
}
