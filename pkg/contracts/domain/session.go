// Package domain contains the shared data contracts of the glucose report
// pipeline: session records, the loaded dataset, the aggregate summary,
// recommendations and rendered image payloads.
package domain

import (
	"time"
)

// Column identifies one of the recognized input columns.
type Column string

const (
	ColumnDate    Column = "date"
	ColumnTime    Column = "time"
	ColumnCarbs   Column = "carbs_g"
	ColumnWalk    Column = "walk_min"
	ColumnSleep   Column = "sleep_h"
	ColumnGlucose Column = "glucose_mg_dl"
)

// NumericColumns lists the columns that feed the aggregate summary.
var NumericColumns = []Column{ColumnGlucose, ColumnCarbs, ColumnWalk, ColumnSleep}

// SessionRecord is one simulated management session. Any field may be missing.
type SessionRecord struct {
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	CarbsG      *float64   `json:"carbs_g,omitempty"`
	WalkMin     *float64   `json:"walk_min,omitempty"`
	SleepH      *float64   `json:"sleep_h,omitempty"`
	GlucoseMgDL *float64   `json:"glucose_mg_dl,omitempty"`
	SourceFile  string     `json:"source_file"`
}

// Value returns the numeric cell for a column, or nil when it is missing
// or the column is not numeric.
func (r SessionRecord) Value(col Column) *float64 {
	switch col {
	case ColumnGlucose:
		return r.GlucoseMgDL
	case ColumnCarbs:
		return r.CarbsG
	case ColumnWalk:
		return r.WalkMin
	case ColumnSleep:
		return r.SleepH
	}
	return nil
}

// Dataset is the concatenation of every successfully parsed input file in
// arrival order (file order, then row order).
type Dataset struct {
	Records []SessionRecord `json:"records"`
	Columns map[Column]bool `json:"columns"`
	Sources []string        `json:"sources"`
}

// NewDataset returns an empty dataset ready for appends.
func NewDataset() *Dataset {
	return &Dataset{Columns: make(map[Column]bool)}
}

// HasColumn reports whether any loaded file carried the column.
func (d *Dataset) HasColumn(col Column) bool {
	if d == nil {
		return false
	}
	return d.Columns[col]
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Float returns a pointer to v. Handy for building records in code.
func Float(v float64) *float64 {
	return &v
}
