package domain

// AggregatedResult is the market-level summary for an area.
type AggregatedResult struct {
	AverageDailyRate float64 `json:"adr"`
	OccupancyRate    float64 `json:"occupancy"`
}

// ListingResult is derived per listing: revenue over active days, occupancy as reported.
type ListingResult struct {
	AverageDailyRate float64 `json:"adr"`
	OccupancyRate    float64 `json:"occupancy"`
}

type CombinedResult struct {
	Aggregated AggregatedResult `json:"aggregated"`
	Listings   []ListingResult  `json:"listings"`
}

// Outcome is either fulfilled with data or unfulfilled with nothing.
// Check the tag (Get / IsFulfilled) before reading Data.
type Outcome[T any] struct {
	Data      T
	fulfilled bool
}

func Fulfilled[T any](data T) Outcome[T] { return Outcome[T]{Data: data, fulfilled: true} }

func Unfulfilled[T any]() Outcome[T] { return Outcome[T]{} }

func (o Outcome[T]) IsFulfilled() bool { return o.fulfilled }

func (o Outcome[T]) Get() (T, bool) { return o.Data, o.fulfilled }
