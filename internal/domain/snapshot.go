package domain

import "time"

const (
	KindAggregated = "aggregated"
	KindCombined   = "combined"
)

// Snapshot is a recorded fulfilled query, kept for market history.
type Snapshot struct {
	ID               string
	Kind             string // aggregated|combined
	Filters          QueryFilters
	AverageDailyRate float64
	OccupancyRate    float64
	Listings         []ListingResult // empty for aggregated snapshots
	CreatedAt        time.Time
}

// Miss records a query the remote could not serve.
type Miss struct {
	Kind    string
	Filters QueryFilters
	Reason  string
}
