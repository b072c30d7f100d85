// Package examples locates or creates the example session files used when
// a run is started without input.
package examples

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/exporter"
	"glucoreport/internal/files"
)

// seedFile is one file written when no example folder holds data.
type seedFile struct {
	name string
	rows []exporter.SessionRow
}

func seedFiles() []seedFile {
	day := func(hour, minute int) time.Time {
		return time.Date(2025, time.November, 23, hour, minute, 0, 0, time.Local)
	}
	return []seedFile{
		{
			name: "simulation_example_1.csv",
			rows: []exporter.SessionRow{{
				At: day(8, 30), Carbs: 50, Walk: 20, Sleep: 7, Glucose: 95,
				CarbsEffect: "+60", WalkEffect: "-16", SleepEffect: "0 for optimal sleep",
			}},
		},
		{
			name: "simulation_example_2.csv",
			rows: []exporter.SessionRow{{
				At: day(13, 45), Carbs: 80, Walk: 10, Sleep: 5, Glucose: 165,
				CarbsEffect: "+96", WalkEffect: "-8", SleepEffect: "+5.0 for <7h sleep",
			}},
		},
	}
}

// Provisioner finds the first candidate folder with tabular files, or seeds
// one.
type Provisioner struct {
	dirs      []string
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewProvisioner creates a provisioner over dirs, searched in order.
func NewProvisioner(dirs []string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		dirs:      dirs,
		discovery: files.NewDiscovery(""),
		logger:    logger.With(slog.String("component", "examples")),
	}
}

// Provision returns the example files to load. Existing data wins; an
// existing but empty folder is preferred as the seed target over creating a
// new one.
func (p *Provisioner) Provision(ctx context.Context) ([]string, error) {
	if len(p.dirs) == 0 {
		return nil, apperrors.NewConfigError("no example data folder configured", nil)
	}

	var existing, missing []string
	for _, dir := range p.dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			missing = append(missing, dir)
			continue
		}

		found, err := p.discovery.FindTabularFiles(dir)
		if err != nil {
			p.logger.WarnContext(ctx, "example folder unreadable",
				slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		if len(found) > 0 {
			paths := make([]string, len(found))
			for i, f := range found {
				paths[i] = f.Path
			}
			p.logger.InfoContext(ctx, "example data found",
				slog.String("dir", dir), slog.Int("files", len(paths)))
			return paths, nil
		}
		existing = append(existing, dir)
	}

	var errs []error
	for _, dir := range append(existing, missing...) {
		paths, err := p.seed(dir)
		if err == nil {
			p.logger.InfoContext(ctx, "example data created",
				slog.String("dir", dir), slog.Int("files", len(paths)))
			return paths, nil
		}
		p.logger.WarnContext(ctx, "example folder not writable",
			slog.String("dir", dir), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", dir, err))
	}
	return nil, apperrors.NewPersistenceError("could not create example data", errors.Join(errs...))
}

func (p *Provisioner) seed(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	exp := exporter.New(dir, p.logger)

	var paths []string
	for _, f := range seedFiles() {
		path, err := exp.WriteRows(f.name, f.rows)
		if err != nil {
			for _, written := range paths {
				os.Remove(written)
			}
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Dirs returns the candidate folders in lookup order.
func (p *Provisioner) Dirs() []string {
	out := make([]string, len(p.dirs))
	copy(out, p.dirs)
	return out
}

// FolderFor reports the folder holding paths, or "" when paths is empty.
func FolderFor(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return filepath.Dir(paths[0])
}
