package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"proximity-dashboard/internal/geo"
	"proximity-dashboard/internal/telemetry"
)

// VehicleDirectory holds the vehicle roster fetched from the telemetry API.
// The roster is loaded once at startup; afterwards lookups are in-memory and
// only a single vehicle's position is ever re-fetched.
type VehicleDirectory struct {
	api      telemetry.API
	vehicles map[string]telemetry.Vehicle
	loaded   bool
	mu       sync.RWMutex
}

// NewVehicleDirectory creates an empty directory backed by the given API
func NewVehicleDirectory(api telemetry.API) *VehicleDirectory {
	return &VehicleDirectory{
		api:      api,
		vehicles: make(map[string]telemetry.Vehicle),
	}
}

// LoadAll performs the two-step roster fetch: the list of car numbers, then
// the batch detail request. An empty fleet is not an error.
func (d *VehicleDirectory) LoadAll(ctx context.Context) ([]telemetry.Vehicle, error) {
	numbers, err := d.api.ListCarNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster list fetch failed: %w", err)
	}

	if len(numbers) == 0 {
		d.mu.Lock()
		d.vehicles = make(map[string]telemetry.Vehicle)
		d.loaded = true
		d.mu.Unlock()
		return []telemetry.Vehicle{}, nil
	}

	vehicles, err := d.api.CarInfo(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("roster detail fetch failed: %w", err)
	}

	roster := make(map[string]telemetry.Vehicle, len(vehicles))
	for _, v := range vehicles {
		roster[v.CarNumber] = v
	}

	d.mu.Lock()
	d.vehicles = roster
	d.loaded = true
	d.mu.Unlock()

	return sortedByNumber(vehicles), nil
}

// Loaded reports whether the startup roster load has completed
func (d *VehicleDirectory) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// All returns the loaded roster sorted by car number
func (d *VehicleDirectory) All() []telemetry.Vehicle {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]telemetry.Vehicle, 0, len(d.vehicles))
	for _, v := range d.vehicles {
		result = append(result, v)
	}

	return sortedByNumber(result)
}

// FindByNumber looks a vehicle up in the loaded roster. No network access.
func (d *VehicleDirectory) FindByNumber(carNumber string) (telemetry.Vehicle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.vehicles[carNumber]
	return v, ok
}

// RefreshPosition re-fetches one vehicle's detail record and returns its
// current coordinate. The cached roster entry is left untouched; the caller
// decides whether and where to store the fresh position.
func (d *VehicleDirectory) RefreshPosition(ctx context.Context, carNumber string) (geo.Coordinate, error) {
	vehicles, err := d.api.CarInfo(ctx, []string{carNumber})
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("position refresh failed: %w", err)
	}

	for _, v := range vehicles {
		if v.CarNumber == carNumber {
			return v.Position(), nil
		}
	}

	return geo.Coordinate{}, fmt.Errorf("%w: vehicle %s missing from detail response", telemetry.ErrRemoteData, carNumber)
}

func sortedByNumber(vehicles []telemetry.Vehicle) []telemetry.Vehicle {
	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].CarNumber < vehicles[j].CarNumber
	})
	return vehicles
}
