package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/simulator"
	"glucoreport/pkg/contracts/domain"
)

// SessionHeaders is the exported column schema. The first six columns are
// the ones the loader recognizes; the effect columns are informational.
var SessionHeaders = []string{
	"Fecha", "Hora", "Hidratos (g)", "Caminata (min)", "Sueño (h)",
	"Glucosa (mg/dL)", "Efecto HC", "Efecto Caminar", "Efecto Sueño",
}

// Day-first date and 24h clock, as read back by the loader.
const (
	DateLayout  = "02/01/2006"
	ClockLayout = "15:04"
)

// SessionRow is one exported line.
type SessionRow struct {
	At          time.Time
	Carbs       float64
	Walk        float64
	Sleep       float64
	Glucose     float64
	CarbsEffect string
	WalkEffect  string
	SleepEffect string
}

// RowFromResult converts a simulation into its exported line.
func RowFromResult(r simulator.Result) SessionRow {
	return SessionRow{
		At:          r.At,
		Carbs:       r.Carbs,
		Walk:        r.Walk,
		Sleep:       r.Sleep,
		Glucose:     r.Glucose,
		CarbsEffect: "+" + formatNumber(r.CarbsEffect),
		WalkEffect:  "-" + formatNumber(r.WalkEffect),
		SleepEffect: r.SleepText,
	}
}

// Record renders the row in SessionHeaders order.
func (r SessionRow) Record() []string {
	return []string{
		r.At.Format(DateLayout),
		r.At.Format(ClockLayout),
		formatNumber(r.Carbs),
		formatNumber(r.Walk),
		formatNumber(r.Sleep),
		formatNumber(r.Glucose),
		r.CarbsEffect,
		r.WalkEffect,
		r.SleepEffect,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FileName returns the default export name for a simulation taken at at.
func FileName(at time.Time, ext string) string {
	return "glucose_simulation_" + at.Format("02-01-2006_150405") + ext
}

// SimulationExport is the JSON document written by ExportJSON.
type SimulationExport struct {
	Kind       string                  `json:"kind"`
	Date       string                  `json:"date"`
	Time       string                  `json:"time"`
	Parameters ExportParameters        `json:"parameters"`
	Results    ExportResults           `json:"results"`
	Advice     []domain.Recommendation `json:"advice"`
	Notes      string                  `json:"notes"`
}

// ExportParameters echoes the simulation inputs.
type ExportParameters struct {
	CarbsG  float64 `json:"carbs_g"`
	WalkMin float64 `json:"walk_min"`
	SleepH  float64 `json:"sleep_h"`
}

// ExportResults carries the estimate and the per-factor effects.
type ExportResults struct {
	GlucoseMgDL float64 `json:"estimated_glucose_mg_dl"`
	CarbsEffect string  `json:"carbs_effect"`
	WalkEffect  string  `json:"walk_effect"`
	SleepEffect string  `json:"sleep_effect"`
}

// NewSimulationExport builds the JSON document for r.
func NewSimulationExport(r simulator.Result) SimulationExport {
	row := RowFromResult(r)
	return SimulationExport{
		Kind: "Educational type 2 diabetes simulation",
		Date: r.At.Format(DateLayout),
		Time: r.At.Format(ClockLayout),
		Parameters: ExportParameters{
			CarbsG:  r.Carbs,
			WalkMin: r.Walk,
			SleepH:  r.Sleep,
		},
		Results: ExportResults{
			GlucoseMgDL: r.Glucose,
			CarbsEffect: row.CarbsEffect + " mg/dL",
			WalkEffect:  row.WalkEffect + " mg/dL",
			SleepEffect: r.SleepText,
		},
		Advice: r.Advice,
		Notes:  domain.Disclaimer,
	}
}

// Exporter writes simulations below a base directory.
type Exporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates an exporter rooted at baseDir.
func New(baseDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(baseDir, logger),
		logger: logger,
	}
}

// ExportCSV writes the results as session rows. An empty name derives one
// from the first result.
func (e *Exporter) ExportCSV(name string, results ...simulator.Result) (string, error) {
	rows := make([]SessionRow, len(results))
	for i, r := range results {
		rows[i] = RowFromResult(r)
	}
	if name == "" && len(rows) > 0 {
		name = FileName(rows[0].At, ".csv")
	}
	return e.WriteRows(name, rows)
}

// WriteRows writes rows under SessionHeaders with a BOM.
func (e *Exporter) WriteRows(name string, rows []SessionRow) (string, error) {
	if name == "" {
		return "", apperrors.NewAppValidationError("export file name is required")
	}
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	path, err := e.csv.WriteCSV(name, WriteOptions{
		Headers:   SessionHeaders,
		Records:   records,
		BOMPrefix: true,
	})
	if err != nil {
		return "", apperrors.NewPersistenceError("session export failed", err).WithContext("file", name)
	}
	return path, nil
}

// AppendCSV adds the results to an existing session CSV, so repeated
// simulations build one dataset. A missing or empty file is created with
// headers.
func (e *Exporter) AppendCSV(name string, results ...simulator.Result) (string, error) {
	if name == "" {
		return "", apperrors.NewAppValidationError("export file name is required")
	}
	if info, err := os.Stat(e.csv.resolvePath(name)); err != nil || info.Size() == 0 {
		return e.ExportCSV(name, results...)
	}
	records := make([][]string, len(results))
	for i, r := range results {
		records[i] = RowFromResult(r).Record()
	}
	path, err := e.csv.AppendToCSV(name, records)
	if err != nil {
		return "", apperrors.NewPersistenceError("session export failed", err).WithContext("file", name)
	}
	return path, nil
}

// ExportJSON writes the JSON document for r. An empty name derives one from
// the simulation time.
func (e *Exporter) ExportJSON(name string, r simulator.Result) (string, error) {
	if name == "" {
		name = FileName(r.At, ".json")
	}
	path := e.csv.resolvePath(name)

	data, err := json.MarshalIndent(NewSimulationExport(r), "", "  ")
	if err != nil {
		return "", apperrors.NewPersistenceError("encode simulation", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperrors.NewPersistenceError("session export failed", fmt.Errorf("failed to create directory: %w", err)).
			WithContext("file", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apperrors.NewPersistenceError("session export failed", err).WithContext("file", path)
	}

	e.logger.Info("Wrote simulation JSON", slog.String("full_path", path))
	return path, nil
}
