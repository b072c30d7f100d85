package services

import "errors"

// Report service errors
var (
	ErrNoInput        = errors.New("no input given: send files, paths or use_examples")
	ErrReportNotReady = errors.New("report has not been written yet")
	ErrServiceStopped = errors.New("report service stopped")
)
