package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoDataFile is returned when a directory holds no dataset file.
var ErrNoDataFile = errors.New("no dataset file found")

// DataExtensions are the dataset file types the loader understands.
var DataExtensions = []string{".json", ".csv"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds dataset files relative to a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDataFiles lists files in dir with one of exts, oldest first.
func (d *Discovery) FindDataFiles(dir string, exts ...string) ([]FileInfo, error) {
	if len(exts) == 0 {
		exts = DataExtensions
	}
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// ResolveSource turns a configured dataset source into something Open
// accepts. URLs and regular files pass through; a directory resolves to its
// most recently modified dataset file.
func (d *Discovery) ResolveSource(source string) (string, error) {
	if IsRemote(source) {
		return source, nil
	}
	fullPath := d.resolve(source)

	info, err := os.Stat(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", fullPath, err)
	}
	if !info.IsDir() {
		return fullPath, nil
	}

	files, err := d.FindDataFiles(fullPath)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoDataFile, fullPath)
	}
	return files[len(files)-1].Path, nil
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
