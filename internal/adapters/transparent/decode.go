package transparent

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"transparent_roi/internal/adapters/observability"
	"transparent_roi/internal/domain"
)

// ErrDecode marks a 2xx response whose body does not match the API contract.
var ErrDecode = errors.New("transparent: malformed response")

type aggregatedBody struct {
	YearAverageADR       *float64 `json:"year_average_adr"`
	YearAverageOccupancy *float64 `json:"year_average_occupancy"`
}

type listingBody struct {
	YearTotalRevenue   *float64 `json:"year_total_revenue"`
	ActiveDays         *float64 `json:"active_days"`
	YearTotalOccupancy *float64 `json:"year_total_occupancy"`
}

func decodeAggregated(b []byte) (domain.AggregatedResult, error) {
	var body aggregatedBody
	if err := json.Unmarshal(b, &body); err != nil {
		return domain.AggregatedResult{}, fmt.Errorf("%w: aggregated: %v", ErrDecode, err)
	}
	if body.YearAverageADR == nil {
		return domain.AggregatedResult{}, fmt.Errorf("%w: aggregated: missing year_average_adr", ErrDecode)
	}
	if body.YearAverageOccupancy == nil {
		return domain.AggregatedResult{}, fmt.Errorf("%w: aggregated: missing year_average_occupancy", ErrDecode)
	}
	return domain.AggregatedResult{
		AverageDailyRate: *body.YearAverageADR,
		OccupancyRate:    *body.YearAverageOccupancy,
	}, nil
}

// decodeListings keeps response order. Listings without positive active days
// cannot produce a daily rate and are dropped (logged and counted).
func decodeListings(b []byte) ([]domain.ListingResult, error) {
	var raw []listingBody
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: listings: %v", ErrDecode, err)
	}

	out := make([]domain.ListingResult, 0, len(raw))
	for i, l := range raw {
		switch {
		case l.YearTotalRevenue == nil:
			return nil, fmt.Errorf("%w: listings[%d]: missing year_total_revenue", ErrDecode, i)
		case l.ActiveDays == nil:
			return nil, fmt.Errorf("%w: listings[%d]: missing active_days", ErrDecode, i)
		case l.YearTotalOccupancy == nil:
			return nil, fmt.Errorf("%w: listings[%d]: missing year_total_occupancy", ErrDecode, i)
		}
		if *l.ActiveDays <= 0 {
			log.Warn().Int("index", i).Float64("active_days", *l.ActiveDays).Msg("listing dropped: no active days")
			observability.ObserveListingDropped("no_active_days")
			continue
		}
		out = append(out, domain.ListingResult{
			AverageDailyRate: *l.YearTotalRevenue / *l.ActiveDays,
			OccupancyRate:    *l.YearTotalOccupancy,
		})
	}
	return out, nil
}
