package operations

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"glucoreport/pkg/contracts/domain"
)

// DefaultQueueSize is the number of updates buffered for the sinks.
const DefaultQueueSize = 64

// StatusBroadcaster is the single authority for run status. Snapshots are
// updated synchronously; delivery to sinks happens on a separate goroutine.
type StatusBroadcaster struct {
	mu     sync.RWMutex
	runs   map[string]*RunSnapshot
	sinks  []Sink
	logger *slog.Logger

	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	dropped  atomic.Int64
	onDrop   func()
}

// RunSnapshot is the latest known state of a run.
type RunSnapshot struct {
	RunID       string          `json:"run_id"`
	Phase       Phase           `json:"phase"`
	Progress    int             `json:"progress"`
	Message     string          `json:"message,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
	Error       string          `json:"error,omitempty"`
	ReportPath  string          `json:"report_path,omitempty"`
	PDFPath     string          `json:"pdf_path,omitempty"`
	Summary     *domain.Summary `json:"summary,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewStatusBroadcaster creates a broadcaster and starts its delivery
// goroutine. A queueSize <= 0 uses DefaultQueueSize.
func NewStatusBroadcaster(logger *slog.Logger, queueSize int, sinks ...Sink) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	sb := &StatusBroadcaster{
		runs:    make(map[string]*RunSnapshot),
		sinks:   sinks,
		logger:  logger.With(slog.String("component", "status_broadcaster")),
		updates: make(chan Update, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go sb.processUpdates()

	return sb
}

// AddSink registers another receiver of updates.
func (sb *StatusBroadcaster) AddSink(s Sink) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.sinks = append(sb.sinks, s)
}

// OnDrop registers a callback invoked for every dropped update.
func (sb *StatusBroadcaster) OnDrop(fn func()) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.onDrop = fn
}

// Publish records u in the run snapshot and queues it for the sinks. It
// never blocks: when the queue is full the update is dropped and counted.
func (sb *StatusBroadcaster) Publish(u Update) {
	if u.Time.IsZero() {
		u.Time = time.Now()
	}
	sb.apply(u)

	select {
	case sb.updates <- u:
	default:
		sb.dropped.Add(1)
		sb.mu.RLock()
		onDrop := sb.onDrop
		sb.mu.RUnlock()
		if onDrop != nil {
			onDrop()
		}
		sb.logger.Debug("progress update dropped",
			slog.String("run_id", u.RunID),
			slog.String("phase", string(u.Phase)))
	}
}

// Dropped returns the number of updates discarded because the queue was full.
func (sb *StatusBroadcaster) Dropped() int64 {
	return sb.dropped.Load()
}

func (sb *StatusBroadcaster) apply(u Update) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	snapshot, exists := sb.runs[u.RunID]
	if !exists {
		snapshot = &RunSnapshot{
			RunID:     u.RunID,
			Phase:     PhaseIdle,
			StartedAt: u.Time,
		}
		sb.runs[u.RunID] = snapshot
	}

	if u.Phase != "" {
		snapshot.Phase = u.Phase
	}
	// progress never moves backwards
	if u.Progress > snapshot.Progress {
		snapshot.Progress = u.Progress
	}
	snapshot.Message = u.Message
	switch u.Level {
	case LevelWarning:
		snapshot.Warnings = append(snapshot.Warnings, u.Message)
	case LevelError:
		snapshot.Error = u.Message
	}
	snapshot.UpdatedAt = u.Time
	if snapshot.Phase.Terminal() && snapshot.CompletedAt == nil {
		at := u.Time
		snapshot.CompletedAt = &at
	}
}

// Complete attaches the outcome of a successful run to its snapshot.
func (sb *StatusBroadcaster) Complete(res *Result) {
	if res == nil {
		return
	}
	sb.mu.Lock()
	defer sb.mu.Unlock()

	snapshot, ok := sb.runs[res.RunID]
	if !ok {
		return
	}
	summary := res.Summary
	snapshot.Summary = &summary
	snapshot.ReportPath = res.ReportPath
	snapshot.PDFPath = res.PDFPath
}

// processUpdates delivers queued updates in order until Stop. Updates still
// queued at Stop are delivered before it returns.
func (sb *StatusBroadcaster) processUpdates() {
	defer close(sb.done)
	for {
		select {
		case <-sb.stop:
			for {
				select {
				case u := <-sb.updates:
					sb.deliver(u)
				default:
					return
				}
			}
		case u := <-sb.updates:
			sb.deliver(u)
		}
	}
}

func (sb *StatusBroadcaster) deliver(u Update) {
	sb.mu.RLock()
	sinks := make([]Sink, len(sb.sinks))
	copy(sinks, sb.sinks)
	sb.mu.RUnlock()

	for _, s := range sinks {
		s.Deliver(u)
	}
}

// Snapshot returns a copy of the current state of a run.
func (sb *StatusBroadcaster) Snapshot(runID string) (RunSnapshot, bool) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	snapshot, exists := sb.runs[runID]
	if !exists {
		return RunSnapshot{}, false
	}
	return snapshot.clone(), true
}

// Snapshots returns copies of all known runs, oldest first.
func (sb *StatusBroadcaster) Snapshots() []RunSnapshot {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	out := make([]RunSnapshot, 0, len(sb.runs))
	for _, s := range sb.runs {
		out = append(out, s.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// CleanupOldRuns removes finished runs that completed more than maxAge ago.
func (sb *StatusBroadcaster) CleanupOldRuns(maxAge time.Duration) int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, s := range sb.runs {
		if s.CompletedAt != nil && now.Sub(*s.CompletedAt) > maxAge {
			delete(sb.runs, id)
			removed++
		}
	}
	if removed > 0 {
		sb.logger.Info("cleaned up old runs", slog.Int("removed", removed))
	}
	return removed
}

// Stop delivers the remaining queued updates and stops the goroutine.
func (sb *StatusBroadcaster) Stop() {
	sb.stopOnce.Do(func() { close(sb.stop) })
	<-sb.done
}

func (s *RunSnapshot) clone() RunSnapshot {
	c := *s
	c.Warnings = append([]string(nil), s.Warnings...)
	if s.Summary != nil {
		summary := *s.Summary
		c.Summary = &summary
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		c.CompletedAt = &at
	}
	return c
}
