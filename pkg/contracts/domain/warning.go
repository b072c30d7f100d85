package domain

// WarningSource names the stage that produced a run warning.
type WarningSource string

const (
	WarningSourceLoader  WarningSource = "loader"
	WarningSourceSummary WarningSource = "summary"
	WarningSourceCharts  WarningSource = "charts"
	WarningSourceReport  WarningSource = "report"
)

// RunWarning is a recoverable problem collected during a run and listed in
// the report notes.
type RunWarning struct {
	Source  WarningSource `json:"source"`
	File    string        `json:"file,omitempty"`
	Message string        `json:"message"`
}
