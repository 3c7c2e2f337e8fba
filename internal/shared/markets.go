package shared

import (
	"encoding/json"
	"fmt"
	"os"

	"transparent_roi/internal/domain"
)

// DefaultMarkets are sampled when no markets file is configured.
var DefaultMarkets = []domain.QueryFilters{
	{Latitude: 51.5099904, Longitude: -0.12967951, RadiusMeters: 1000, PropertyType: "ENTIRE_HOME", PropertySubtype: "APARTMENT"},
	{Latitude: 48.8566, Longitude: 2.3522, RadiusMeters: 1500, PropertyType: "ENTIRE_HOME", PropertySubtype: "APARTMENT"},
	{Latitude: 41.3874, Longitude: 2.1686, RadiusMeters: 2000, PropertyType: "ENTIRE_HOME", PropertySubtype: "HOUSE"},
}

// LoadMarkets reads a JSON array of filters; an empty path yields DefaultMarkets.
func LoadMarkets(path string) ([]domain.QueryFilters, error) {
	if path == "" {
		return DefaultMarkets, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.QueryFilters
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, f := range out {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("market %d: %w", i, err)
		}
	}
	return out, nil
}
