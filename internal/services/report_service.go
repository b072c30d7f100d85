package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/files"
	"glucoreport/internal/infrastructure"
	"glucoreport/internal/operations"
)

// DefaultQueueSize is used when no queue size is configured.
const DefaultQueueSize = 4

// Runner executes one report run.
type Runner interface {
	Run(ctx context.Context, req operations.Request) (*operations.Result, error)
}

// SubmitRequest is one report request from the HTTP shell.
type SubmitRequest struct {
	Paths       []string `json:"paths" validate:"dive,required"`
	UseExamples bool     `json:"use_examples"`
	Title       string   `json:"title" validate:"max=120"`
	PDF         bool     `json:"pdf"`

	Uploads []*multipart.FileHeader `json:"-"`
}

type job struct {
	req    operations.Request
	staged bool
}

// ReportService queues report runs for a single worker.
type ReportService struct {
	runner  Runner
	status  *operations.StatusBroadcaster
	staging *files.Manager
	metrics *infrastructure.ReportMetrics
	logger  *slog.Logger

	queue   chan job
	mu      sync.Mutex
	stopped bool
}

// ReportServiceOption configures a ReportService.
type ReportServiceOption func(*ReportService)

// WithQueueSize bounds the number of runs waiting for the worker.
func WithQueueSize(n int) ReportServiceOption {
	return func(s *ReportService) {
		if n > 0 {
			s.queue = make(chan job, n)
		}
	}
}

// WithMetrics records queue depth on m.
func WithMetrics(m *infrastructure.ReportMetrics) ReportServiceOption {
	return func(s *ReportService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ReportServiceOption {
	return func(s *ReportService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewReportService creates the service. staging may be nil when uploads are
// not accepted.
func NewReportService(runner Runner, status *operations.StatusBroadcaster, staging *files.Manager, opts ...ReportServiceOption) *ReportService {
	s := &ReportService{
		runner:  runner,
		status:  status,
		staging: staging,
		logger:  slog.Default(),
		queue:   make(chan job, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "report_service"))
	return s
}

var validate = validator.New()

// Submit validates req, stages its uploads and queues the run. It returns
// the run id, or operations.ErrQueueFull when the worker is saturated.
func (s *ReportService) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid report request", err)
	}
	if len(req.Paths) == 0 && len(req.Uploads) == 0 && !req.UseExamples {
		return "", apperrors.NewAppError(apperrors.ErrTypeValidation, ErrNoInput.Error(), ErrNoInput)
	}

	runID := uuid.NewString()
	j := job{req: operations.Request{
		RunID: runID,
		Paths: append([]string(nil), req.Paths...),
		Title: req.Title,
		PDF:   req.PDF,
	}}

	if len(req.Uploads) > 0 {
		if s.staging == nil {
			return "", apperrors.NewAppError(apperrors.ErrTypeValidation, "file uploads are not accepted", nil)
		}
		staged, err := s.staging.StageUploads(runID, req.Uploads)
		if err != nil {
			s.staging.Cleanup(runID)
			return "", apperrors.NewPersistenceError("could not stage uploads", err)
		}
		j.req.Paths = append(j.req.Paths, staged...)
		j.staged = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.discard(j)
		return "", ErrServiceStopped
	}

	select {
	case s.queue <- j:
	default:
		s.discard(j)
		s.logger.WarnContext(ctx, "report queue full",
			slog.String("run_id", runID),
			slog.Int("queue_size", cap(s.queue)))
		return "", operations.ErrQueueFull
	}

	s.queueDepth(ctx, 1)
	if s.status != nil {
		s.status.Publish(operations.Update{
			RunID:   runID,
			Phase:   operations.PhaseIdle,
			Level:   operations.LevelInfo,
			Message: "Queued",
		})
	}
	s.logger.InfoContext(ctx, "report run queued",
		slog.String("run_id", runID),
		slog.Int("paths", len(j.req.Paths)),
		slog.Bool("use_examples", len(j.req.Paths) == 0))
	return runID, nil
}

func (s *ReportService) discard(j job) {
	if j.staged {
		s.staging.Cleanup(j.req.RunID)
	}
}

// Run is the worker loop. It processes one run at a time until ctx is
// done; the run in progress is allowed to finish.
func (s *ReportService) Run(ctx context.Context) error {
	s.logger.Info("report worker started", slog.Int("queue_size", cap(s.queue)))
	defer func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.drain()
		s.logger.Info("report worker stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.queue:
			s.queueDepth(ctx, -1)
			s.execute(j)
		}
	}
}

func (s *ReportService) execute(j job) {
	// A run outlives the request that queued it.
	ctx := infrastructure.WithTraceID(context.Background(), j.req.RunID)
	start := time.Now()

	res, err := s.runner.Run(ctx, j.req)
	if j.staged {
		if cerr := s.staging.Cleanup(j.req.RunID); cerr != nil {
			s.logger.WarnContext(ctx, "failed to remove staged uploads",
				slog.String("run_id", j.req.RunID),
				slog.String("error", cerr.Error()))
		}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "queued report run failed",
			slog.String("run_id", j.req.RunID),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}
	s.logger.InfoContext(ctx, "queued report run finished",
		slog.String("run_id", j.req.RunID),
		slog.String("report", res.ReportPath),
		slog.Duration("duration", time.Since(start)))
}

// drain fails runs still queued when the worker stops.
func (s *ReportService) drain() {
	for {
		select {
		case j := <-s.queue:
			s.queueDepth(context.Background(), -1)
			s.discard(j)
			if s.status != nil {
				s.status.Publish(operations.Update{
					RunID:   j.req.RunID,
					Phase:   operations.PhaseFailed,
					Level:   operations.LevelError,
					Message: ErrServiceStopped.Error(),
				})
			}
		default:
			return
		}
	}
}

func (s *ReportService) queueDepth(ctx context.Context, delta int64) {
	if s.metrics != nil {
		s.metrics.QueueDepth.Add(ctx, delta)
	}
}

// QueueLength returns the number of runs waiting for the worker.
func (s *ReportService) QueueLength() int {
	return len(s.queue)
}

// Status returns the latest snapshot of a run.
func (s *ReportService) Status(runID string) (operations.RunSnapshot, error) {
	if s.status == nil {
		return operations.RunSnapshot{}, operations.ErrRunNotFound
	}
	snap, ok := s.status.Snapshot(runID)
	if !ok {
		return operations.RunSnapshot{}, operations.ErrRunNotFound
	}
	return snap, nil
}

// Runs lists every known run.
func (s *ReportService) Runs() []operations.RunSnapshot {
	if s.status == nil {
		return nil
	}
	return s.status.Snapshots()
}

// DocumentPath returns the written report of a finished run.
func (s *ReportService) DocumentPath(runID string) (string, error) {
	snap, err := s.Status(runID)
	if err != nil {
		return "", err
	}
	if snap.ReportPath == "" {
		return "", fmt.Errorf("run %s is %s: %w", runID, snap.Phase, ErrReportNotReady)
	}
	return snap.ReportPath, nil
}
