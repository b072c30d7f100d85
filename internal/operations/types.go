package operations

import (
	"time"

	"glucoreport/pkg/contracts/domain"
)

// Phase is a step of the run state machine.
type Phase string

const (
	PhaseIdle            Phase = "IDLE"
	PhaseLoading         Phase = "LOADING"
	PhaseAggregating     Phase = "AGGREGATING"
	PhaseRenderingCharts Phase = "RENDERING_CHARTS"
	PhaseComposing       Phase = "COMPOSING"
	PhaseDone            Phase = "DONE"
	PhaseFailed          Phase = "FAILED"
)

// Progress reported when a phase is entered.
var phaseProgress = map[Phase]int{
	PhaseIdle:            0,
	PhaseLoading:         10,
	PhaseAggregating:     35,
	PhaseRenderingCharts: 55,
	PhaseComposing:       80,
	PhaseDone:            100,
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Level is the severity of a progress update.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// WebSocket event types
const (
	EventTypeRunProgress = "report:progress"
	EventTypeRunComplete = "report:complete"
	EventTypeRunError    = "report:error"
)

// Update is one progress message of a run.
type Update struct {
	RunID    string    `json:"run_id"`
	Phase    Phase     `json:"phase"`
	Progress int       `json:"progress"`
	Level    Level     `json:"level"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// Request describes one run.
type Request struct {
	// RunID identifies the run in logs, traces and status queries. A new
	// id is generated when empty.
	RunID string
	// Paths are files or directories to load. When empty the pipeline asks
	// its example provider for input.
	Paths []string
	Title string
	// PDF also prints the written report to PDF.
	PDF bool
}

// Result is the outcome of a successful run.
type Result struct {
	RunID           string                  `json:"run_id"`
	ReportPath      string                  `json:"report_path"`
	PDFPath         string                  `json:"pdf_path,omitempty"`
	Fallback        bool                    `json:"fallback"`
	Summary         domain.Summary          `json:"summary"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Warnings        []domain.RunWarning     `json:"warnings,omitempty"`
	FileCount       int                     `json:"file_count"`
	SourceLabel     string                  `json:"source_label"`
	UsedExamples    bool                    `json:"used_examples"`
	Duration        time.Duration           `json:"duration"`
}
