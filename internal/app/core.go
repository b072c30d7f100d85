package app

import (
	"context"
	"fmt"
	"log/slog"

	"glucoreport/internal/charts"
	"glucoreport/internal/config"
	"glucoreport/internal/examples"
	"glucoreport/internal/infrastructure"
	"glucoreport/internal/loader"
	"glucoreport/internal/operations"
	"glucoreport/internal/report"
	"glucoreport/pkg/contracts"
)

// Core holds the components shared by the CLI commands and the HTTP shell.
type Core struct {
	Config   *config.Config
	Paths    *config.Paths
	Logger   *slog.Logger
	OTel     *infrastructure.OTelProviders
	Metrics  *infrastructure.ReportMetrics
	Status   *operations.StatusBroadcaster
	Examples *examples.Provisioner
	Pipeline *operations.Pipeline
}

// NewCore resolves paths, starts telemetry and builds the pipeline. The
// sinks receive every progress update of every run.
func NewCore(cfg *config.Config, logger *slog.Logger, sinks ...operations.Sink) (*Core, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewReportMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create report metrics: %w", err)
	}
	tracer, err := operations.NewPipelineTracer(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline tracer: %w", err)
	}

	status := operations.NewStatusBroadcaster(logger, 0, sinks...)
	status.OnDrop(tracer.RecordDroppedUpdate)

	provisioner := examples.NewProvisioner(paths.ExampleDirs, logger)

	renderer := charts.NewRenderer(
		charts.WithSize(cfg.Charts.Width, cfg.Charts.Height),
		charts.WithDPI(cfg.Charts.DPI),
		charts.WithLogger(logger),
	)
	composer := report.NewComposer(report.NewStore(paths.ReportsDir, paths.FallbackReportsDir), logger)

	pipeline, err := operations.NewPipeline(loader.New(logger), renderer, composer,
		operations.WithExamples(provisioner),
		operations.WithStatus(status),
		operations.WithPDFPrinter(report.NewPDFPrinter(cfg.Report.PDFTimeout, logger)),
		operations.WithTracer(tracer),
		operations.WithTitle(cfg.Report.Title),
		operations.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("core initialized",
		slog.String("version", contracts.GetVersionString()),
		slog.String("reports_dir", paths.ReportsDir))

	return &Core{
		Config:   cfg,
		Paths:    paths,
		Logger:   logger,
		OTel:     providers,
		Metrics:  metrics,
		Status:   status,
		Examples: provisioner,
		Pipeline: pipeline,
	}, nil
}

// Close stops the broadcaster, which flushes pending sink deliveries, and
// shuts telemetry down.
func (c *Core) Close(ctx context.Context) error {
	c.Status.Stop()
	if c.OTel == nil {
		return nil
	}
	return c.OTel.Shutdown(ctx)
}
