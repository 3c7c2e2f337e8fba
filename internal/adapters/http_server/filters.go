package httpserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"transparent_roi/internal/adapters/transparent"
	"transparent_roi/internal/domain"
)

// parseFilters reads filters using the same parameter names as the upstream API.
func parseFilters(q url.Values) (domain.QueryFilters, error) {
	var (
		f   domain.QueryFilters
		err error
	)
	if f.Latitude, err = requiredFloat(q, transparent.ParamLatitude); err != nil {
		return f, err
	}
	if f.Longitude, err = requiredFloat(q, transparent.ParamLongitude); err != nil {
		return f, err
	}
	radius := q.Get(transparent.ParamRadiusMeters)
	if f.RadiusMeters, err = strconv.Atoi(radius); err != nil {
		return f, fmt.Errorf("%s must be an integer", transparent.ParamRadiusMeters)
	}
	f.PropertyType = strings.ToUpper(strings.TrimSpace(q.Get(transparent.ParamType)))
	f.PropertySubtype = strings.ToUpper(strings.TrimSpace(q.Get(transparent.ParamSubtype)))

	for key, dst := range map[string]*[]int{
		transparent.ParamBedrooms:  &f.Bedrooms,
		transparent.ParamBathrooms: &f.Bathrooms,
		transparent.ParamCapacity:  &f.Capacity,
	} {
		if *dst, err = intList(q, key); err != nil {
			return f, err
		}
	}

	for key, dst := range map[string]**bool{
		transparent.ParamPool:            &f.Pool,
		transparent.ParamAirConditioning: &f.AirConditioning,
		transparent.ParamKidFriendly:     &f.KidFriendly,
		transparent.ParamParking:         &f.Parking,
		transparent.ParamHotTub:          &f.HotTub,
	} {
		if *dst, err = triState(q, key); err != nil {
			return f, err
		}
	}

	if s := strings.TrimSpace(q.Get(transparent.ParamActiveDays)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%s must be a non-negative integer", transparent.ParamActiveDays)
		}
		f.ActiveDays = &n
	}

	return f, f.Validate()
}

func requiredFloat(q url.Values, key string) (float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// intList accepts "1,2,3" and repeated keys (bedrooms=1&bedrooms=2).
func intList(q url.Values, key string) ([]int, error) {
	var out []int
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%s must be a comma-separated list of integers", key)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// triState: absent -> nil, otherwise 1/0/true/false.
func triState(q url.Values, key string) (*bool, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be 1, 0, true or false", key)
	}
	return &b, nil
}
