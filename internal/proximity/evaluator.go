package proximity

import (
	"math"

	"proximity-dashboard/internal/geo"
)

// Check statuses
const (
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusError    = "error"
)

// Check is the outcome of a single proximity evaluation. Distance is set for
// every approved and denied outcome, zero included; only the error outcome
// carries no distance.
type Check struct {
	Status   string `json:"status"`
	Distance *int   `json:"distance,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Evaluate decides whether a vehicle is close enough to a charging station to
// authorize a charging session. The boundary is inclusive: a distance exactly
// equal to the radius is approved. A missing vehicle or station position is
// the only way to reach the error status.
func Evaluate(vehicle, station geo.Coordinate, radiusMeters int) Check {
	if !vehicle.Known() || !station.Known() {
		return Check{
			Status:  StatusError,
			Message: "position unavailable for vehicle or station",
		}
	}

	d := geo.DistanceMeters(vehicle, station)
	rounded := roundHalfUp(d)

	check := Check{
		Status:   StatusDenied,
		Distance: &rounded,
	}
	if d <= float64(radiusMeters) {
		check.Status = StatusApproved
	}

	return check
}

// roundHalfUp rounds to the nearest whole meter, halves away from zero.
func roundHalfUp(d float64) int {
	return int(math.Floor(d + 0.5))
}
