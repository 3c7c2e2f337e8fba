package domain

import "context"

// PricingClient is a single-query client: one instance per set of filters.
type PricingClient interface {
	Aggregated(ctx context.Context) (Outcome[AggregatedResult], error)
	Combined(ctx context.Context) (Outcome[CombinedResult], error)
}

// ClientFactory builds a fresh PricingClient for one query.
type ClientFactory func(f QueryFilters) (PricingClient, error)

type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	LogMiss(ctx context.Context, m Miss) error
	ListSnapshots(ctx context.Context, q SnapshotsQuery) ([]Snapshot, error)
}

type SnapshotsQuery struct {
	Kind  string // optional
	Limit int
}
