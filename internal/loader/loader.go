package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/files"
	"glucoreport/pkg/contracts/domain"
)

var errNoRecognizedColumns = errors.New("no recognized session columns in header")

// Warning describes an input file that was skipped.
type Warning struct {
	File string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.File, w.Err)
}

// Loader turns input paths into a Dataset.
type Loader struct {
	discovery *files.Discovery
	logger    *slog.Logger
}

// New creates a Loader. Relative paths resolve against the working directory.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		discovery: files.NewDiscovery(""),
		logger:    logger.With(slog.String("component", "loader")),
	}
}

// Load parses every file reachable from paths. Files that fail are returned
// as warnings. If none parses, or the parsed files hold no rows, the error
// matches errors.ErrNoValidData and the dataset is nil.
func (l *Loader) Load(ctx context.Context, paths []string) (*domain.Dataset, []Warning, error) {
	ds := domain.NewDataset()
	var warnings []Warning

	candidates := l.discovery.Expand(paths)
	for _, c := range candidates {
		if c.Err != nil {
			warnings = append(warnings, l.skip(ctx, c.Path, c.Err))
			continue
		}

		records, cols, err := l.loadFile(c.Path)
		if err != nil {
			warnings = append(warnings, l.skip(ctx, c.Path, err))
			continue
		}

		for col := range cols {
			ds.Columns[col] = true
		}
		ds.Records = append(ds.Records, records...)
		ds.Sources = append(ds.Sources, c.Path)

		l.logger.DebugContext(ctx, "file loaded",
			slog.String("file", c.Path),
			slog.Int("rows", len(records)))
	}

	if len(ds.Sources) == 0 {
		err := apperrors.NewNoDataError(
			fmt.Sprintf("none of the %d input file(s) could be read", len(candidates)), nil).
			WithContext("skipped", len(warnings))
		l.logger.ErrorContext(ctx, "no valid data loaded",
			slog.Int("inputs", len(candidates)),
			slog.Int("skipped", len(warnings)))
		return nil, warnings, err
	}
	if ds.Len() == 0 {
		l.logger.ErrorContext(ctx, "no session rows loaded",
			slog.Int("files", len(ds.Sources)),
			slog.Int("skipped", len(warnings)))
		return nil, warnings, apperrors.NewNoDataError(
			fmt.Sprintf("the %d readable input file(s) contain no session rows", len(ds.Sources)), nil).
			WithContext("files", len(ds.Sources))
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("files", len(ds.Sources)),
		slog.Int("skipped", len(warnings)),
		slog.Int("records", len(ds.Records)))
	return ds, warnings, nil
}

func (l *Loader) skip(ctx context.Context, path string, cause error) Warning {
	l.logger.WarnContext(ctx, "input file skipped",
		slog.String("file", path),
		slog.String("error", cause.Error()))
	return Warning{File: path, Err: apperrors.NewInputError(filepath.Base(path), cause)}
}

// loadFile parses one file into records tagged with its base name.
func (l *Loader) loadFile(path string) ([]domain.SessionRecord, map[domain.Column]bool, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, nil, err
	}

	positions := mapHeader(rows[0])
	if len(positions) == 0 {
		return nil, nil, errNoRecognizedColumns
	}
	cols := make(map[domain.Column]bool, len(positions))
	for col := range positions {
		cols[col] = true
	}

	source := filepath.Base(path)
	records := make([]domain.SessionRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, buildRecord(row, positions, source))
	}
	return records, cols, nil
}

func buildRecord(row []string, positions map[domain.Column]int, source string) domain.SessionRecord {
	cell := func(col domain.Column) (string, bool) {
		i, ok := positions[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}
	number := func(col domain.Column) *float64 {
		raw, ok := cell(col)
		if !ok {
			return nil
		}
		if v, ok := ParseNumber(raw); ok {
			return &v
		}
		return nil
	}

	rec := domain.SessionRecord{
		CarbsG:      number(domain.ColumnCarbs),
		WalkMin:     number(domain.ColumnWalk),
		SleepH:      number(domain.ColumnSleep),
		GlucoseMgDL: number(domain.ColumnGlucose),
		SourceFile:  source,
	}
	rec.Date, _ = cell(domain.ColumnDate)
	rec.Time, _ = cell(domain.ColumnTime)
	if ts, ok := ParseTimestamp(rec.Date, rec.Time); ok {
		rec.Timestamp = &ts
	}
	return rec
}
