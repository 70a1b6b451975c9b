package telemetry

import "context"

// API defines the interface for remote fleet-telemetry operations
type API interface {
	ListCarNumbers(ctx context.Context) ([]string, error)
	CarInfo(ctx context.Context, carNumbers []string) ([]Vehicle, error)
	ChargingReport(ctx context.Context, carNumbers []string, dateFrom, dateTo string) ([][]HistoryRecord, error)
}
