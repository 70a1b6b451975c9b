package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors
var (
	// ErrRemoteUnavailable covers transport failures, timeouts and non-2xx
	// statuses other than 401.
	ErrRemoteUnavailable = errors.New("telemetry api unavailable")
	// ErrAuthInvalid is returned on HTTP 401: the API token is invalid or
	// expired.
	ErrAuthInvalid = errors.New("telemetry api token invalid or expired")
	// ErrRemoteData covers well-formed HTTP responses whose payload is
	// semantically invalid: missing success flag, success=false, or a data
	// field of the wrong shape.
	ErrRemoteData = errors.New("telemetry api returned invalid data")
)

// Client handles communication with the remote fleet-telemetry API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new telemetry API client. Every request carries the
// static bearer token and the given timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the common response wrapper of every telemetry endpoint. The
// success flag is a pointer so a missing flag is distinguishable from false.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ListCarNumbers returns the identifiers of every vehicle in the fleet
func (c *Client) ListCarNumbers(ctx context.Context) ([]string, error) {
	data, err := c.call(ctx, "GET", "/cars/list", nil)
	if err != nil {
		return nil, err
	}

	var numbers []string
	if err := json.Unmarshal(data, &numbers); err != nil {
		return nil, fmt.Errorf("%w: car list is not a list of identifiers", ErrRemoteData)
	}

	return numbers, nil
}

// CarInfo returns the detail records for the given vehicles, including their
// last known positions
func (c *Client) CarInfo(ctx context.Context, carNumbers []string) ([]Vehicle, error) {
	body := struct {
		CarNumbers []string `json:"car_numbers"`
	}{
		CarNumbers: carNumbers,
	}

	data, err := c.call(ctx, "POST", "/cars/info", body)
	if err != nil {
		return nil, err
	}

	var vehicles []Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return nil, fmt.Errorf("%w: car info is not a list of vehicles", ErrRemoteData)
	}

	return vehicles, nil
}

// ChargingReport returns the charging sessions of the given vehicles between
// two dates in DD/MM/YYYY format, one inner list per requested vehicle
func (c *Client) ChargingReport(ctx context.Context, carNumbers []string, dateFrom, dateTo string) ([][]HistoryRecord, error) {
	body := struct {
		CarNumbers []string `json:"car_numbers"`
		DateFrom   string   `json:"date_from"`
		DateTo     string   `json:"date_to"`
	}{
		CarNumbers: carNumbers,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
	}

	data, err := c.call(ctx, "POST", "/reports/cars/charging", body)
	if err != nil {
		return nil, err
	}

	var report [][]HistoryRecord
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: charging report has unexpected shape", ErrRemoteData)
	}

	return report, nil
}

// call issues one request and unwraps the response envelope, mapping
// transport and payload failures to the package error kinds
func (c *Client) call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	url := fmt.Sprintf("%s%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthInvalid
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteData, err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("%w: missing success flag", ErrRemoteData)
	}
	if !*env.Success {
		return nil, fmt.Errorf("%w: success=false", ErrRemoteData)
	}

	return env.Data, nil
}

var _ API = (*Client)(nil)
