package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidFilters = errors.New("invalid query filters")

// QueryFilters is the caller-side description of a market query.
// Optional filters use nil to mean "unspecified"; an explicit false is sent as 0.
type QueryFilters struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RadiusMeters    int     `json:"radius_meters"`
	PropertyType    string  `json:"type"`
	PropertySubtype string  `json:"subtype"`

	Bedrooms  []int `json:"bedrooms,omitempty"`
	Bathrooms []int `json:"bathrooms,omitempty"`
	Capacity  []int `json:"capacity,omitempty"`

	Pool            *bool `json:"pool,omitempty"`
	AirConditioning *bool `json:"air_conditioning,omitempty"`
	KidFriendly     *bool `json:"kid_friendly,omitempty"`
	Parking         *bool `json:"parking,omitempty"`
	HotTub          *bool `json:"hot_tub,omitempty"`

	ActiveDays *int `json:"active_days,omitempty"`
}

func (f QueryFilters) Validate() error {
	var problems []string
	if math.IsNaN(f.Latitude) || f.Latitude < -90 || f.Latitude > 90 {
		problems = append(problems, "latitude must be within [-90, 90]")
	}
	if math.IsNaN(f.Longitude) || f.Longitude < -180 || f.Longitude > 180 {
		problems = append(problems, "longitude must be within [-180, 180]")
	}
	if f.RadiusMeters <= 0 {
		problems = append(problems, "radius_meters must be positive")
	}
	if strings.TrimSpace(f.PropertyType) == "" {
		problems = append(problems, "type is required")
	}
	if strings.TrimSpace(f.PropertySubtype) == "" {
		problems = append(problems, "subtype is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFilters, strings.Join(problems, "; "))
	}
	return nil
}
