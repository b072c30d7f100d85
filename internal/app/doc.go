// Package app wires the report pipeline and the HTTP shell together.
//
// NewCore builds the components every entry point needs: telemetry, the
// status broadcaster, the example provisioner and the pipeline itself.
// NewApplication adds the serve-only pieces on top (WebSocket hub, report
// queue, router and HTTP server).
//
// # Lifecycle
//
//	core, err := app.NewCore(cfg, logger)
//	a, err := app.NewApplication(core)
//	err = a.Run(ctx) // returns after ctx is cancelled and shutdown finished
//
// Run starts the hub, the report worker and the HTTP server under one
// errgroup. Cancelling ctx shuts the server down within
// Server.ShutdownTimeout; runs still queued at that point fail with
// "report service stopped".
package app
