package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"proximity-dashboard/internal/telemetry"
)

// ErrInvalidDate is returned when a date filter is not a valid YYYY-MM-DD day
var ErrInvalidDate = errors.New("invalid date")

const (
	isoDateLayout    = "2006-01-02"
	reportDateLayout = "02/01/2006"
)

// Query fetches charging-session history from the telemetry API. Results are
// fetched fresh on every call; nothing is cached across date-range changes.
type Query struct {
	api telemetry.API
}

// NewQuery creates a history query backed by the given API
func NewQuery(api telemetry.API) *Query {
	return &Query{api: api}
}

// Fetch returns one vehicle's charging sessions between two ISO dates. The
// remote report endpoint expects DD/MM/YYYY; the conversion happens here so
// callers only ever deal in ISO dates.
func (q *Query) Fetch(ctx context.Context, carNumber, fromISO, toISO string) ([]telemetry.HistoryRecord, error) {
	from, err := time.Parse(isoDateLayout, fromISO)
	if err != nil {
		return nil, fmt.Errorf("%w: date_from %q", ErrInvalidDate, fromISO)
	}
	to, err := time.Parse(isoDateLayout, toISO)
	if err != nil {
		return nil, fmt.Errorf("%w: date_to %q", ErrInvalidDate, toISO)
	}

	report, err := q.api.ChargingReport(ctx, []string{carNumber},
		from.Format(reportDateLayout), to.Format(reportDateLayout))
	if err != nil {
		return nil, fmt.Errorf("charging report fetch failed: %w", err)
	}

	// One inner list per requested vehicle; exactly one vehicle is ever
	// requested here. An absent entry means no sessions in range.
	if len(report) == 0 || report[0] == nil {
		return []telemetry.HistoryRecord{}, nil
	}

	slog.Info("Charging history fetched",
		"car_number", carNumber,
		"date_from", fromISO,
		"date_to", toISO,
		"records", len(report[0]))

	return report[0], nil
}
