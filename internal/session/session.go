package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"

	"proximity-dashboard/internal/directory"
	"proximity-dashboard/internal/geo"
	"proximity-dashboard/internal/proximity"
)

// View modes
const (
	ViewDashboard = "dashboard"
	ViewHistory   = "history"
)

// Radius bounds in meters
const (
	MinRadius     = 10
	MaxRadius     = 8000
	DefaultRadius = 50
)

// Common errors
var (
	// ErrPrecondition signals a user action attempted without its required
	// selections, or while another remote operation is still in flight. The
	// UI is expected to disable such actions, but the session re-validates
	// regardless.
	ErrPrecondition = errors.New("precondition failed")
	// ErrStaleResult signals a proximity result that resolved after the
	// selection pair it was issued for had changed. The result is discarded.
	ErrStaleResult = errors.New("stale proximity result discarded")
)

// Session is the in-memory state of one operator's interaction with the
// dashboard. It lives for the lifetime of the process and is never persisted.
type Session struct {
	vehicles *directory.VehicleDirectory
	stations *directory.StationDirectory

	mu           sync.Mutex
	flight       *fsm.FSM
	viewMode     string
	vehicleID    string
	stationID    string
	radius       int
	lastPosition *geo.Coordinate
	lastCheck    *proximity.Check
}

// MapView is the payload the external map widget consumes. Nothing flows
// back from the widget into the session.
type MapView struct {
	VehiclePosition *geo.Coordinate `json:"vehicle_position,omitempty"`
	StationPosition *geo.Coordinate `json:"station_position,omitempty"`
	RadiusMeters    int             `json:"radius_meters"`
}

// Snapshot is a read-only view of the session. EffectiveCheck is derived
// live from the last fetched position, the currently selected station and
// the current radius, independent of LastCheck.
type Snapshot struct {
	ViewMode        string           `json:"view_mode"`
	SelectedVehicle string           `json:"selected_vehicle,omitempty"`
	SelectedStation string           `json:"selected_station,omitempty"`
	Radius          int              `json:"radius"`
	InFlight        string           `json:"in_flight"`
	RosterLoaded    bool             `json:"roster_loaded"`
	LastPosition    *geo.Coordinate  `json:"last_position,omitempty"`
	LastCheck       *proximity.Check `json:"last_check,omitempty"`
	EffectiveCheck  *proximity.Check `json:"effective_check,omitempty"`
	Map             MapView          `json:"map"`
}

// New creates a session in its initial state: dashboard view, no selections,
// default radius, roster load in flight.
func New(vehicles *directory.VehicleDirectory, stations *directory.StationDirectory) *Session {
	return &Session{
		vehicles: vehicles,
		stations: stations,
		flight:   newFlightMachine(),
		viewMode: ViewDashboard,
		radius:   DefaultRadius,
	}
}

// CompleteRosterLoad marks the startup roster load as resolved, success or
// failure alike, freeing the session for user-triggered operations.
func (s *Session) CompleteRosterLoad(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flight.Event(ctx, eventRosterDone); err != nil {
		slog.Warn("Roster load completion out of order", "state", s.flight.Current(), "error", err)
	}
}

// SelectVehicle picks a vehicle and resets the derived state: the last
// fetched position and the last check pertain to the previous selection,
// even when the same vehicle is re-selected.
func (s *Session) SelectVehicle(carNumber string) error {
	if _, ok := s.vehicles.FindByNumber(carNumber); !ok {
		slog.Warn("Vehicle selection rejected", "car_number", carNumber)
		return fmt.Errorf("%w: unknown vehicle %s", ErrPrecondition, carNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vehicleID = carNumber
	s.lastPosition = nil
	s.lastCheck = nil
	return nil
}

// SelectStation picks a charging station and clears the last check. The last
// fetched position describes the vehicle, not the pairing, so it survives.
func (s *Session) SelectStation(stationID string) error {
	if _, ok := s.stations.FindByID(stationID); !ok {
		slog.Warn("Station selection rejected", "station_id", stationID)
		return fmt.Errorf("%w: unknown station %s", ErrPrecondition, stationID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stationID = stationID
	s.lastCheck = nil
	return nil
}

// SetRadius clamps the threshold to the valid range and returns the
// effective value. The last check is left untouched; only the live effective
// decision reflects the new radius until the next explicit check.
func (s *Session) SetRadius(meters int) int {
	if meters < MinRadius {
		meters = MinRadius
	}
	if meters > MaxRadius {
		meters = MaxRadius
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.radius = meters
	return meters
}

// RequestProximityCheck refreshes the selected vehicle's position and
// evaluates it against the selected station. The request is tagged with the
// selection pair it was issued for; a result resolving after the pair
// changed is discarded. At most one check runs at a time.
func (s *Session) RequestProximityCheck(ctx context.Context) (*proximity.Check, error) {
	s.mu.Lock()
	vehicleID := s.vehicleID
	stationID := s.stationID
	radius := s.radius

	if vehicleID == "" || stationID == "" {
		s.mu.Unlock()
		slog.Warn("Proximity check rejected: missing selection",
			"vehicle_id", vehicleID,
			"station_id", stationID)
		return nil, fmt.Errorf("%w: both a vehicle and a station must be selected", ErrPrecondition)
	}

	if err := s.flight.Event(ctx, eventBeginCheck); err != nil {
		state := s.flight.Current()
		s.mu.Unlock()
		slog.Warn("Proximity check rejected: operation in flight", "in_flight", state)
		return nil, fmt.Errorf("%w: %s in flight", ErrPrecondition, state)
	}

	station, _ := s.stations.FindByID(stationID)
	s.mu.Unlock()

	// The position refresh completes, success or failure, strictly before
	// the evaluator runs.
	position, fetchErr := s.vehicles.RefreshPosition(ctx, vehicleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flight.Event(ctx, eventResolveCheck); err != nil {
		slog.Error("Proximity check resolution out of order", "error", err)
	}

	if s.vehicleID != vehicleID || s.stationID != stationID {
		slog.Warn("Discarding proximity result for stale selection pair",
			"issued_vehicle", vehicleID,
			"issued_station", stationID,
			"selected_vehicle", s.vehicleID,
			"selected_station", s.stationID)
		return nil, ErrStaleResult
	}

	if fetchErr != nil {
		slog.Error("Vehicle position refresh failed", "vehicle_id", vehicleID, "error", fetchErr)
		check := proximity.Check{
			Status:  proximity.StatusError,
			Message: "could not retrieve vehicle position",
		}
		s.lastCheck = &check
		return &check, nil
	}

	s.lastPosition = &position
	check := proximity.Evaluate(position, station.Location, radius)
	s.lastCheck = &check

	args := []any{
		"vehicle_id", vehicleID,
		"station_id", stationID,
		"radius", radius,
		"status", check.Status,
	}
	if check.Distance != nil {
		args = append(args, "distance", *check.Distance)
	}
	slog.Info("Proximity check completed", args...)

	return &check, nil
}

// NavigateToHistory switches to the history view. A selected vehicle is
// required; without one the transition is refused.
func (s *Session) NavigateToHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vehicleID == "" {
		slog.Warn("History navigation rejected: no vehicle selected")
		return fmt.Errorf("%w: history view requires a selected vehicle", ErrPrecondition)
	}

	s.viewMode = ViewHistory
	return nil
}

// NavigateToDashboard returns to the dashboard view. The vehicle context may
// have changed while away, so the derived state is cleared and the operator
// runs a fresh check.
func (s *Session) NavigateToDashboard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewMode = ViewDashboard
	s.lastCheck = nil
	s.lastPosition = nil
}

// BeginHistoryLoad reserves the session for one history fetch and returns
// the vehicle it is scoped to. The caller must release the session with
// FinishHistoryLoad. Only one history load runs at a time, so the latest
// request is always the authoritative one.
func (s *Session) BeginHistoryLoad(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vehicleID == "" {
		slog.Warn("History load rejected: no vehicle selected")
		return "", fmt.Errorf("%w: history requires a selected vehicle", ErrPrecondition)
	}

	if err := s.flight.Event(ctx, eventBeginHistory); err != nil {
		slog.Warn("History load rejected: operation in flight", "in_flight", s.flight.Current())
		return "", fmt.Errorf("%w: %s in flight", ErrPrecondition, s.flight.Current())
	}

	return s.vehicleID, nil
}

// FinishHistoryLoad resolves the in-flight history fetch
func (s *Session) FinishHistoryLoad(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flight.Event(ctx, eventResolveHistory); err != nil {
		slog.Error("History load resolution out of order", "error", err)
	}
}

// Snapshot returns a read-only view of the session, including the live
// effective decision and the map widget payload.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ViewMode:        s.viewMode,
		SelectedVehicle: s.vehicleID,
		SelectedStation: s.stationID,
		Radius:          s.radius,
		InFlight:        s.flight.Current(),
		RosterLoaded:    s.vehicles.Loaded(),
		LastPosition:    s.lastPosition,
		LastCheck:       s.lastCheck,
		Map:             MapView{RadiusMeters: s.radius},
	}

	snap.Map.VehiclePosition = s.lastPosition

	if s.stationID != "" {
		station, ok := s.stations.FindByID(s.stationID)
		if ok {
			snap.Map.StationPosition = &station.Location

			// Live decision label, recomputed from the current radius and
			// station whenever either changes, regardless of LastCheck
			if s.lastPosition != nil {
				effective := proximity.Evaluate(*s.lastPosition, station.Location, s.radius)
				snap.EffectiveCheck = &effective
			}
		}
	}

	return snap
}
