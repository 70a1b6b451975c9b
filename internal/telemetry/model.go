package telemetry

import "proximity-dashboard/internal/geo"

// Vehicle is one fleet vehicle as reported by the telemetry API. Lat and Lng
// are nil when the vehicle has no known position.
type Vehicle struct {
	CarNumber string   `json:"car_number"`
	Brand     string   `json:"brand,omitempty"`
	Model     string   `json:"model,omitempty"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// Position returns the vehicle's last reported coordinate. The result may
// have missing components when the position is unknown.
func (v Vehicle) Position() geo.Coordinate {
	return geo.Coordinate{Lat: v.Lat, Lng: v.Lng}
}

// HistoryRecord is one completed charging session as reported by the
// telemetry API. Distance is the vehicle-to-location distance in meters at
// the time of the session, reported remotely and never recomputed here.
type HistoryRecord struct {
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Duration     string  `json:"duration"`
	BatteryStart float64 `json:"battery_start"`
	BatteryEnd   float64 `json:"battery_end"`
	TotalKwh     float64 `json:"total_kwh"`
	TotalPrice   float64 `json:"total_price"`
	LocationName string  `json:"location_name"`
	Distance     float64 `json:"distance"`
}

// BatteryDelta is the charge gained over the session, in percentage points.
func (r HistoryRecord) BatteryDelta() float64 {
	return r.BatteryEnd - r.BatteryStart
}
