package session

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// In-flight states. The session performs at most one remote operation at a
// time; the machine below is the only concurrency guard it needs.
const (
	FlightNone    = "none"
	FlightRoster  = "loadingRoster"
	FlightCheck   = "checkingProximity"
	FlightHistory = "loadingHistory"
)

// Flight events
const (
	eventRosterDone     = "event_roster_done"
	eventBeginCheck     = "event_begin_check"
	eventResolveCheck   = "event_resolve_check"
	eventBeginHistory   = "event_begin_history"
	eventResolveHistory = "event_resolve_history"
)

// newFlightMachine builds the in-flight state machine. The session starts in
// loadingRoster because the roster load begins immediately on startup.
func newFlightMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: eventRosterDone, Src: []string{FlightRoster}, Dst: FlightNone},
		{Name: eventBeginCheck, Src: []string{FlightNone}, Dst: FlightCheck},
		{Name: eventResolveCheck, Src: []string{FlightCheck}, Dst: FlightNone},
		{Name: eventBeginHistory, Src: []string{FlightNone}, Dst: FlightHistory},
		{Name: eventResolveHistory, Src: []string{FlightHistory}, Dst: FlightNone},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			slog.Debug("Session in-flight transition", "from", e.Src, "to", e.Dst)
		},
	}

	return fsm.NewFSM(FlightRoster, events, callbacks)
}
