package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"proximity-dashboard/internal/directory"
	"proximity-dashboard/internal/history"
	"proximity-dashboard/internal/proximity"
	"proximity-dashboard/internal/session"
	"proximity-dashboard/internal/telemetry"
)

type fakeAPI struct{}

func floatPtr(v float64) *float64 {
	return &v
}

func (f *fakeAPI) ListCarNumbers(ctx context.Context) ([]string, error) {
	return []string{"12-345-67"}, nil
}

func (f *fakeAPI) CarInfo(ctx context.Context, carNumbers []string) ([]telemetry.Vehicle, error) {
	return []telemetry.Vehicle{
		{CarNumber: "12-345-67", Brand: "Hyundai", Model: "Kona", Lat: floatPtr(32.1617), Lng: floatPtr(34.9340)},
	}, nil
}

func (f *fakeAPI) ChargingReport(ctx context.Context, carNumbers []string, dateFrom, dateTo string) ([][]telemetry.HistoryRecord, error) {
	return [][]telemetry.HistoryRecord{{
		{StartTime: "2024-05-02 08:11", EndTime: "2024-05-02 09:45", LocationName: "Afek Park Depot", TotalKwh: 38.5},
	}}, nil
}

func setupTestHandler(t *testing.T) (*HTTPHandler, *session.Session) {
	t.Helper()

	api := &fakeAPI{}
	vehicles := directory.NewVehicleDirectory(api)
	if _, err := vehicles.LoadAll(context.Background()); err != nil {
		t.Fatalf("Failed to load roster: %v", err)
	}

	stations := directory.NewStationDirectory()
	sess := session.New(vehicles, stations)
	sess.CompleteRosterLoad(context.Background())

	handler := NewHTTPHandler(sess, vehicles, stations, history.NewQuery(api), "map-key")
	return handler, sess
}

func TestHTTPHandler_Health(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestHTTPHandler_GetVehicles(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/vehicles", nil)
	rr := httptest.NewRecorder()
	handler.GetVehicles(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response struct {
		Loaded   bool                `json:"loaded"`
		Vehicles []telemetry.Vehicle `json:"vehicles"`
	}
	json.NewDecoder(rr.Body).Decode(&response)

	if !response.Loaded {
		t.Error("Expected roster marked loaded")
	}
	if len(response.Vehicles) != 1 || response.Vehicles[0].CarNumber != "12-345-67" {
		t.Errorf("Unexpected roster payload: %+v", response.Vehicles)
	}
}

func TestHTTPHandler_GetVehicles_Placeholder(t *testing.T) {
	vehicles := directory.NewVehicleDirectory(&fakeAPI{})
	stations := directory.NewStationDirectory()
	sess := session.New(vehicles, stations)
	handler := NewHTTPHandler(sess, vehicles, stations, history.NewQuery(&fakeAPI{}), "")

	req := httptest.NewRequest("GET", "/vehicles", nil)
	rr := httptest.NewRecorder()
	handler.GetVehicles(rr, req)

	var response struct {
		Loaded   bool                `json:"loaded"`
		Vehicles []telemetry.Vehicle `json:"vehicles"`
	}
	json.NewDecoder(rr.Body).Decode(&response)

	if response.Loaded {
		t.Error("Expected roster marked not loaded")
	}
	if len(response.Vehicles) != 0 {
		t.Errorf("Expected empty placeholder roster, got %+v", response.Vehicles)
	}
}

func TestHTTPHandler_GetStations(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/stations", nil)
	rr := httptest.NewRecorder()
	handler.GetStations(rr, req)

	var stations []directory.ChargingStation
	json.NewDecoder(rr.Body).Decode(&stations)

	if len(stations) != 3 {
		t.Errorf("Expected 3 stations, got %d", len(stations))
	}
}

func TestHTTPHandler_SelectVehicle(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"car_number": "12-345-67"}`)
	req := httptest.NewRequest("PUT", "/session/vehicle", body)
	rr := httptest.NewRecorder()
	handler.SelectVehicle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var snap session.Snapshot
	json.NewDecoder(rr.Body).Decode(&snap)
	if snap.SelectedVehicle != "12-345-67" {
		t.Errorf("Expected selected vehicle in snapshot, got %q", snap.SelectedVehicle)
	}
}

func TestHTTPHandler_SelectVehicle_Unknown(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"car_number": "00-000-00"}`)
	req := httptest.NewRequest("PUT", "/session/vehicle", body)
	rr := httptest.NewRecorder()
	handler.SelectVehicle(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestHTTPHandler_CheckProximity(t *testing.T) {
	handler, sess := setupTestHandler(t)

	sess.SelectVehicle("12-345-67")
	sess.SelectStation("C001")

	req := httptest.NewRequest("POST", "/session/check", nil)
	rr := httptest.NewRecorder()
	handler.CheckProximity(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var check proximity.Check
	json.NewDecoder(rr.Body).Decode(&check)
	if check.Status != proximity.StatusApproved {
		t.Errorf("Expected approved, got %s", check.Status)
	}
}

func TestHTTPHandler_CheckProximity_MissingSelection(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("POST", "/session/check", nil)
	rr := httptest.NewRecorder()
	handler.CheckProximity(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestHTTPHandler_SetView_HistoryRequiresVehicle(t *testing.T) {
	handler, sess := setupTestHandler(t)

	body := bytes.NewBufferString(`{"mode": "history"}`)
	req := httptest.NewRequest("POST", "/session/view", body)
	rr := httptest.NewRecorder()
	handler.SetView(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	sess.SelectVehicle("12-345-67")

	body = bytes.NewBufferString(`{"mode": "history"}`)
	req = httptest.NewRequest("POST", "/session/view", body)
	rr = httptest.NewRecorder()
	handler.SetView(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestHTTPHandler_GetChargingHistory(t *testing.T) {
	handler, sess := setupTestHandler(t)
	sess.SelectVehicle("12-345-67")

	req := httptest.NewRequest("GET", "/reports/charging?from=2024-05-01&to=2024-05-31", nil)
	rr := httptest.NewRecorder()
	handler.GetChargingHistory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var records []telemetry.HistoryRecord
	json.NewDecoder(rr.Body).Decode(&records)
	if len(records) != 1 || records[0].LocationName != "Afek Park Depot" {
		t.Errorf("Unexpected history payload: %+v", records)
	}
}

func TestHTTPHandler_GetChargingHistory_MissingParams(t *testing.T) {
	handler, sess := setupTestHandler(t)
	sess.SelectVehicle("12-345-67")

	req := httptest.NewRequest("GET", "/reports/charging", nil)
	rr := httptest.NewRecorder()
	handler.GetChargingHistory(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestHTTPHandler_GetChargingHistory_NoVehicle(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/reports/charging?from=2024-05-01&to=2024-05-31", nil)
	rr := httptest.NewRecorder()
	handler.GetChargingHistory(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, rr.Code)
	}
}

func TestHTTPHandler_ExportChargingHistory(t *testing.T) {
	handler, sess := setupTestHandler(t)
	sess.SelectVehicle("12-345-67")

	req := httptest.NewRequest("GET", "/reports/charging/export?from=2024-05-01&to=2024-05-31", nil)
	rr := httptest.NewRecorder()
	handler.ExportChargingHistory(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "charging_history_12-345-67.csv") {
		t.Errorf("Unexpected Content-Disposition: %s", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "\ufeff") {
		t.Error("Expected BOM-prefixed CSV body")
	}
	if !strings.Contains(rr.Body.String(), `"Afek Park Depot"`) {
		t.Error("Expected record row in CSV body")
	}
}
