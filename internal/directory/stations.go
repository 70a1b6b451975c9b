package directory

import "proximity-dashboard/internal/geo"

// ChargingStation represents one charging location
type ChargingStation struct {
	ID       string         `json:"station_id"`
	Name     string         `json:"name"`
	Address  string         `json:"address"`
	Location geo.Coordinate `json:"location_geo"`
}

// StationDirectory serves the built-in charging station list. No remote
// source exists for station data; the seed ships with the application.
type StationDirectory struct {
	stations []ChargingStation
	byID     map[string]ChargingStation
}

// NewStationDirectory creates a directory over the built-in seed
func NewStationDirectory() *StationDirectory {
	stations := seedStations()

	byID := make(map[string]ChargingStation, len(stations))
	for _, s := range stations {
		byID[s.ID] = s
	}

	return &StationDirectory{
		stations: stations,
		byID:     byID,
	}
}

// All returns every seeded station
func (d *StationDirectory) All() []ChargingStation {
	result := make([]ChargingStation, len(d.stations))
	copy(result, d.stations)
	return result
}

// FindByID looks a station up by identifier
func (d *StationDirectory) FindByID(id string) (ChargingStation, bool) {
	s, ok := d.byID[id]
	return s, ok
}

// seedStations returns the fixed charging locations of the fleet depot area
func seedStations() []ChargingStation {
	return []ChargingStation{
		{
			ID:       "C001",
			Name:     "Afek Park Depot",
			Address:  "HaMelacha 11, Rosh HaAyin",
			Location: geo.NewCoordinate(32.16165, 34.93400),
		},
		{
			ID:       "C002",
			Name:     "Em HaMoshavot Mall",
			Address:  "Em HaMoshavot 94, Petah Tikva",
			Location: geo.NewCoordinate(32.09930, 34.86130),
		},
		{
			ID:       "C003",
			Name:     "Segula Industrial Zone",
			Address:  "HaMerkava 40, Petah Tikva",
			Location: geo.NewCoordinate(32.10650, 34.90370),
		},
	}
}
