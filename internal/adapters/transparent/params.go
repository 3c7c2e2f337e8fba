package transparent

import (
	"net/url"
	"strconv"
	"strings"

	"transparent_roi/internal/domain"
)

// Query parameter names understood by the listing ROI API.
const (
	ParamLatitude        = "latitude"
	ParamLongitude       = "longitude"
	ParamRadiusMeters    = "radius_meters"
	ParamType            = "type"
	ParamSubtype         = "subtype"
	ParamBedrooms        = "bedrooms"
	ParamBathrooms       = "bathrooms"
	ParamCapacity        = "capacity"
	ParamPool            = "pool"
	ParamAirConditioning = "air_conditioning"
	ParamKidFriendly     = "kid_friendly"
	ParamParking         = "parking"
	ParamHotTub          = "hot_tub"
	ParamActiveDays      = "active_days"
)

// NormalizedQuery maps parameter names to their serialized values.
// Absent optional filters have no key at all.
type NormalizedQuery map[string]string

// Normalize flattens filters into query parameters. The server treats a missing
// parameter differently from a zero one, so optional keys only appear when set.
func Normalize(f domain.QueryFilters) NormalizedQuery {
	q := NormalizedQuery{
		ParamLatitude:     formatFloat(f.Latitude),
		ParamLongitude:    formatFloat(f.Longitude),
		ParamRadiusMeters: strconv.Itoa(f.RadiusMeters),
		ParamType:         f.PropertyType,
		ParamSubtype:      f.PropertySubtype,
	}

	q.putList(ParamBedrooms, f.Bedrooms)
	q.putList(ParamBathrooms, f.Bathrooms)
	q.putList(ParamCapacity, f.Capacity)

	q.putBool(ParamPool, f.Pool)
	q.putBool(ParamAirConditioning, f.AirConditioning)
	q.putBool(ParamKidFriendly, f.KidFriendly)
	q.putBool(ParamParking, f.Parking)
	q.putBool(ParamHotTub, f.HotTub)

	if f.ActiveDays != nil {
		q[ParamActiveDays] = strconv.Itoa(*f.ActiveDays)
	}
	return q
}

// Values returns a fresh url.Values copy, safe to encode or mutate.
func (q NormalizedQuery) Values() url.Values {
	v := make(url.Values, len(q))
	for k, s := range q {
		v.Set(k, s)
	}
	return v
}

func (q NormalizedQuery) putList(key string, xs []int) {
	if len(xs) == 0 {
		return
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	q[key] = strings.Join(parts, ",")
}

func (q NormalizedQuery) putBool(key string, b *bool) {
	if b == nil {
		return
	}
	if *b {
		q[key] = "1"
		return
	}
	q[key] = "0"
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
