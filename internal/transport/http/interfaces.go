package http

import (
	"context"

	"glucoreport/internal/operations"
	"glucoreport/internal/services"
)

// ReportServiceInterface is the part of services.ReportService the
// handlers use.
type ReportServiceInterface interface {
	Submit(ctx context.Context, req services.SubmitRequest) (string, error)
	Status(runID string) (operations.RunSnapshot, error)
	Runs() []operations.RunSnapshot
	DocumentPath(runID string) (string, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) services.HealthStatus
}
