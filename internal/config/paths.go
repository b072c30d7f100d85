package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ReportsFolderName is the folder created under the user's documents dir.
const ReportsFolderName = "Glucose Reports"

// ExampleFolderName is the example data folder looked up next to the
// executable and in the working directory.
const ExampleFolderName = "example_data"

// Paths contains the resolved file system locations of one process.
type Paths struct {
	ExecutableDir string
	WorkingDir    string
	LogsDir       string

	// Candidate example data folders, in lookup order.
	ExampleDirs []string

	// Report destinations.
	ReportsDir         string
	FallbackReportsDir string

	UploadsDir string
}

// GetPaths resolves the default locations relative to the executable and
// the user's home directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exeDir := filepath.Dir(exe)

	wd, err := os.Getwd()
	if err != nil {
		wd = exeDir
	}

	return &Paths{
		ExecutableDir:      exeDir,
		WorkingDir:         wd,
		LogsDir:            filepath.Join(exeDir, "logs"),
		ExampleDirs:        []string{filepath.Join(exeDir, ExampleFolderName), filepath.Join(wd, ExampleFolderName)},
		ReportsDir:         DefaultReportsDir(),
		FallbackReportsDir: os.TempDir(),
		UploadsDir:         filepath.Join(os.TempDir(), "glucoreport-uploads"),
	}, nil
}

// ResolvePaths applies the configured overrides on top of GetPaths.
func ResolvePaths(cfg *Config) (*Paths, error) {
	p, err := GetPaths()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return p, nil
	}

	if cfg.Report.OutputDir != "" {
		p.ReportsDir = cfg.Report.OutputDir
	}
	if cfg.Report.FallbackDir != "" {
		p.FallbackReportsDir = cfg.Report.FallbackDir
	}
	if cfg.Examples.Dir != "" {
		p.ExampleDirs = append([]string{cfg.Examples.Dir}, p.ExampleDirs...)
	}
	if cfg.Server.UploadDir != "" {
		p.UploadsDir = cfg.Server.UploadDir
	}
	return p, nil
}

// DefaultReportsDir returns ~/Documents/Glucose Reports. Without a home
// directory it degrades to the temp dir.
func DefaultReportsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), ReportsFolderName)
	}
	return filepath.Join(home, "Documents", ReportsFolderName)
}

// LogPathResolution logs the resolved locations at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("working", p.WorkingDir),
			slog.String("logs", p.LogsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("reports_fallback", p.FallbackReportsDir),
			slog.String("uploads", p.UploadsDir),
		),
		slog.Any("example_dirs", p.ExampleDirs))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
