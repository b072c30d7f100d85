// Package services implements the business logic behind the HTTP shell.
//
// ReportService accepts report requests, stages uploaded files and feeds a
// single worker through a bounded queue so runs never overlap. A full queue
// is reported to the caller rather than buffered without limit. Run status
// is read back from the operations.StatusBroadcaster the pipeline publishes
// to.
//
// HealthService reports liveness and a few runtime counters for /healthz.
//
// Services take their collaborators in the constructor:
//
//	svc := services.NewReportService(pipeline, status, files.NewManager(dir, logger),
//	    services.WithQueueSize(cfg.Server.QueueSize), services.WithLogger(logger))
//	go svc.Run(ctx)
//	runID, err := svc.Submit(ctx, services.SubmitRequest{UseExamples: true})
package services
