package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if err := DirectoryWritable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// DirectoryWritable returns nil when path is an existing directory the
// current user can list and write.
func DirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.New("does not exist")
		}
		return fmt.Errorf("stat: %w", err)
	}
	if !info.IsDir() {
		return errors.New("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("insufficient permissions: %w", err)
	}
	return nil
}

// EnsureDirectory creates path when missing and reports whether it did.
func EnsureDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s is not a directory", path)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	return true, nil
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. Missing path components are resolved to the
// nearest existing parent.
func FreeSpace(ctx context.Context, path string) (uint64, error) {
	target := nearestExisting(path)
	usage, err := disk.UsageWithContext(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", target, err)
	}
	return usage.Free, nil
}

// CheckFreeSpace reports free space on the filesystem holding path.
func CheckFreeSpace(ctx context.Context, name, path string) Result {
	free, err := FreeSpace(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: free > 0, Detail: humanize.IBytes(free) + " available"}
}

// CheckMemory reports available system memory.
func CheckMemory(ctx context.Context) Result {
	const name = "Memory"
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unavailable (%v)", err)}
	}
	return Result{
		Name:   name,
		Passed: vm.Available > 0,
		Detail: fmt.Sprintf("%s available of %s", humanize.IBytes(vm.Available), humanize.IBytes(vm.Total)),
	}
}

func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
