package geo

import "math"

const earthRadiusMeters = 6371000.0

// Coordinate is a WGS-84 point in degrees. Either component may be nil,
// meaning the position is unknown.
type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// NewCoordinate builds a fully-specified coordinate.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: &lat, Lng: &lng}
}

// Known reports whether both components are present.
func (c Coordinate) Known() bool {
	return c.Lat != nil && c.Lng != nil
}

// DistanceMeters calculates the distance between two points using the
// Haversine formula. If either point has a missing component it returns +Inf,
// so callers comparing against a finite radius always get "not within range"
// without a separate null check at every call site.
func DistanceMeters(a, b Coordinate) float64 {
	if !a.Known() || !b.Known() {
		return math.Inf(1)
	}

	lat1Rad := *a.Lat * math.Pi / 180
	lat2Rad := *b.Lat * math.Pi / 180
	dlat := (*b.Lat - *a.Lat) * math.Pi / 180
	dlng := (*b.Lng - *a.Lng) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
