package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"proximity-dashboard/internal/directory"
	"proximity-dashboard/internal/history"
	"proximity-dashboard/internal/session"
	"proximity-dashboard/internal/telemetry"
)

// HTTPHandler exposes the dashboard operations over HTTP
type HTTPHandler struct {
	session  *session.Session
	vehicles *directory.VehicleDirectory
	stations *directory.StationDirectory
	history  *history.Query
	mapKey   string
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(sess *session.Session, vehicles *directory.VehicleDirectory, stations *directory.StationDirectory, historyQuery *history.Query, mapKey string) *HTTPHandler {
	return &HTTPHandler{
		session:  sess,
		vehicles: vehicles,
		stations: stations,
		history:  historyQuery,
		mapKey:   mapKey,
	}
}

// RegisterRoutes sets up HTTP routes
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/vehicles", h.GetVehicles).Methods("GET")
	router.HandleFunc("/stations", h.GetStations).Methods("GET")
	router.HandleFunc("/session", h.GetSession).Methods("GET")
	router.HandleFunc("/session/vehicle", h.SelectVehicle).Methods("PUT")
	router.HandleFunc("/session/station", h.SelectStation).Methods("PUT")
	router.HandleFunc("/session/radius", h.SetRadius).Methods("PUT")
	router.HandleFunc("/session/check", h.CheckProximity).Methods("POST")
	router.HandleFunc("/session/view", h.SetView).Methods("POST")
	router.HandleFunc("/reports/charging", h.GetChargingHistory).Methods("GET")
	router.HandleFunc("/reports/charging/export", h.ExportChargingHistory).Methods("GET")
}

// Health returns service health status
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// GetVehicles returns the roster. Until the startup load completes the
// payload is an explicit placeholder, so the selector can render "no data"
// instead of an empty fleet.
func (h *HTTPHandler) GetVehicles(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Loaded   bool                `json:"loaded"`
		Vehicles []telemetry.Vehicle `json:"vehicles"`
	}{
		Loaded:   h.vehicles.Loaded(),
		Vehicles: []telemetry.Vehicle{},
	}
	if response.Loaded {
		response.Vehicles = h.vehicles.All()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetStations returns the built-in charging station list
func (h *HTTPHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stations.All())
}

// GetSession returns the session snapshot, including the live effective
// decision and the map widget payload
func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	response := struct {
		session.Snapshot
		MapAPIKey string `json:"map_api_key,omitempty"`
	}{
		Snapshot:  h.session.Snapshot(),
		MapAPIKey: h.mapKey,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// SelectVehicle picks the session's vehicle
func (h *HTTPHandler) SelectVehicle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CarNumber string `json:"car_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	slog.Info("Vehicle selection request received", "car_number", body.CarNumber)

	if err := h.session.SelectVehicle(body.CarNumber); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeSnapshot(w)
}

// SelectStation picks the session's charging station
func (h *HTTPHandler) SelectStation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StationID string `json:"station_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.session.SelectStation(body.StationID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeSnapshot(w)
}

// SetRadius updates the authorization radius. Out-of-range values are
// clamped, never rejected.
func (h *HTTPHandler) SetRadius(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Radius int `json:"radius"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	h.session.SetRadius(body.Radius)
	h.writeSnapshot(w)
}

// CheckProximity runs one proximity check for the selected pairing
func (h *HTTPHandler) CheckProximity(w http.ResponseWriter, r *http.Request) {
	check, err := h.session.RequestProximityCheck(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrStaleResult) {
			// The selection moved on mid-flight; nothing was stored
			h.writeSnapshot(w)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(check)
}

// SetView switches between the dashboard and history views
func (h *HTTPHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch body.Mode {
	case session.ViewDashboard:
		h.session.NavigateToDashboard()
	case session.ViewHistory:
		if err := h.session.NavigateToHistory(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Unknown view mode", http.StatusBadRequest)
		return
	}

	h.writeSnapshot(w)
}

// GetChargingHistory returns the selected vehicle's charging sessions in the
// requested date range
func (h *HTTPHandler) GetChargingHistory(w http.ResponseWriter, r *http.Request) {
	records, _, ok := h.fetchHistory(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// ExportChargingHistory streams the same date range as a CSV download
func (h *HTTPHandler) ExportChargingHistory(w http.ResponseWriter, r *http.Request) {
	records, carNumber, ok := h.fetchHistory(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+history.ExportFilename(carNumber)+`"`)
	w.Write(history.ExportCSV(records))
}

// fetchHistory runs one guarded history fetch for the selected vehicle. On
// failure it writes the error response and reports ok=false.
func (h *HTTPHandler) fetchHistory(w http.ResponseWriter, r *http.Request) ([]telemetry.HistoryRecord, string, bool) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "Missing required parameters: from, to", http.StatusBadRequest)
		return nil, "", false
	}

	carNumber, err := h.session.BeginHistoryLoad(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return nil, "", false
	}
	defer h.session.FinishHistoryLoad(r.Context())

	records, err := h.history.Fetch(r.Context(), carNumber, from, to)
	if err != nil {
		h.writeRemoteError(w, err)
		return nil, "", false
	}

	return records, carNumber, true
}

// writeRemoteError maps history failures to distinct user-visible statuses
func (h *HTTPHandler) writeRemoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, telemetry.ErrAuthInvalid):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		slog.Error("Charging history request failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (h *HTTPHandler) writeSnapshot(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.session.Snapshot())
}
