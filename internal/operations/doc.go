// Package operations runs the report pipeline and publishes its progress.
//
// A run moves through a fixed sequence of phases:
//
//	IDLE -> LOADING -> AGGREGATING -> RENDERING_CHARTS -> COMPOSING -> DONE
//
// FAILED is reachable from LOADING, when no input file could be parsed, and
// from COMPOSING, when the report could be written neither to the primary
// nor to the fallback directory. Every other problem is recoverable and is
// reported as a warning.
//
// Core Components:
//
// Pipeline: executes one run on the calling goroutine. Stages are strictly
// sequential. The context carries trace and log correlation only; stages do
// not abort on cancellation.
//
// StatusBroadcaster: keeps the latest snapshot of every run and fans progress
// updates out to sinks (the CLI printer, the WebSocket hub) from its own
// goroutine. Publishing never blocks; when the queue is full the update is
// dropped and counted.
//
// PipelineTracer: OpenTelemetry spans and metrics for runs and stages.
package operations
