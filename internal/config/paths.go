package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	WebDir        string
	ReportsDir    string
	LogsDir       string
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// NewPaths lays out the directories under baseDir. Empty entries in cfg
// fall back to the defaults; absolute entries are kept as they are.
//
//	<base>/
//	  ├── data/            (dataset: result.json or *.csv)
//	  │   └── reports/     (CSV/XLSX exports)
//	  ├── logs/
//	  └── web/             (india.json boundaries, frontend)
func NewPaths(baseDir string, cfg PathsConfig) *Paths {
	pick := func(configured, fallback string) string {
		if configured == "" {
			configured = fallback
		}
		if filepath.IsAbs(configured) {
			return configured
		}
		return filepath.Join(baseDir, configured)
	}
	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       pick(cfg.DataDir, DefaultDataDir),
		WebDir:        pick(cfg.WebDir, DefaultWebDir),
		ReportsDir:    pick(cfg.ReportsDir, DefaultReportsDir),
		LogsDir:       pick(cfg.LogsDir, DefaultLogsDir),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve makes a configured source usable: URLs and absolute paths are
// returned as they are, relative paths are joined to the executable directory.
func (p *Paths) Resolve(source string) string {
	if source == "" || IsURL(source) || filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(p.ExecutableDir, source)
}

// IsURL reports whether source is an http(s) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetWebFilePath returns the path to a web file
func (p *Paths) GetWebFilePath(filename string) string {
	return filepath.Join(p.WebDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		))
}
