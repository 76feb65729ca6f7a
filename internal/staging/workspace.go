package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lyricast/internal/logging"
)

// DirPrefix names every per-run workspace directory.
const DirPrefix = "karaoke_export_"

// Workspace is a temporary directory owned by one export run.
type Workspace struct {
	Root  string
	Dir   string
	RunID string
}

// Create makes a fresh workspace for runID under root. An existing directory
// with the same name is an error; workspaces are never shared.
func Create(root, runID string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging root not configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("run id required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	dir := filepath.Join(root, DirPrefix+runID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Root: root, Dir: dir, RunID: runID}, nil
}

// Path returns a path inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// OutputPath returns the temporary encoder output path for a file extension.
func (w *Workspace) OutputPath(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return w.Path("output" + ext)
}

// Remove deletes the workspace and everything in it. Removing an already
// removed workspace is not an error.
func (w *Workspace) Remove(logger *slog.Logger) error {
	if w == nil || w.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		if logger != nil {
			logger.Warn("failed to remove export workspace",
				logging.String("path", w.Dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return fmt.Errorf("remove workspace: %w", err)
	}
	if logger != nil {
		logger.Debug("removed export workspace",
			logging.String("path", w.Dir),
			logging.String(logging.FieldEventType, "workspace_cleanup"),
		)
	}
	return nil
}

// Exists reports whether the workspace directory is still present.
func (w *Workspace) Exists() bool {
	if w == nil {
		return false
	}
	info, err := os.Stat(w.Dir)
	return err == nil && info.IsDir()
}

// DirInfo contains metadata about a workspace left on disk.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListWorkspaces returns the export workspaces currently under root.
func ListWorkspaces(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
