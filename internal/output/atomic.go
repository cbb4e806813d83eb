package output

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"
)

// AtomicConfig controls how report files are written
type AtomicConfig struct {
	UseFsync    bool          // Force fsync before the rename
	LockTimeout time.Duration // Max time to wait for the lock file
	TempSuffix  string        // Suffix for the temporary file
}

// DefaultAtomicConfig provides sensible defaults
func DefaultAtomicConfig() AtomicConfig {
	return AtomicConfig{
		UseFsync:    true,
		LockTimeout: 5 * time.Second,
		TempSuffix:  ".cgrep.tmp",
	}
}

// AtomicWriter writes report files through a temp file and a rename, so a
// reader never sees a half-written report. Concurrent cgrep processes
// writing the same report serialize on a pid lock file.
type AtomicWriter struct {
	config AtomicConfig
	mu     sync.Mutex
	locks  map[string]*os.File
}

// NewAtomicWriter creates a new atomic writer
func NewAtomicWriter(config AtomicConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = DefaultAtomicConfig().TempSuffix
	}
	return &AtomicWriter{
		config: config,
		locks:  make(map[string]*os.File),
	}
}

// WriteFile replaces path with content
func (aw *AtomicWriter) WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := aw.acquireLock(path); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", path, err)
	}
	defer aw.releaseLock(path)

	var mode os.FileMode = 0o644
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tempPath := path + aw.config.TempSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write report: %w", err)
	}

	if aw.config.UseFsync {
		if err := tempFile.Sync(); err != nil {
			tempFile.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to sync: %w", err)
		}
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename report into place: %w", err)
	}
	return nil
}

func (aw *AtomicWriter) acquireLock(path string) error {
	aw.mu.Lock()
	defer aw.mu.Unlock()

	if _, held := aw.locks[path]; held {
		return nil
	}

	lockPath := path + ".lock"
	deadline := time.Now().Add(aw.config.LockTimeout)
	for {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(lockFile, "%d\n", os.Getpid())
			aw.locks[path] = lockFile
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		if isLockStale(lockPath) {
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for lock on %s", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (aw *AtomicWriter) releaseLock(path string) {
	aw.mu.Lock()
	defer aw.mu.Unlock()

	lockFile, held := aw.locks[path]
	if !held {
		return
	}
	lockFile.Close()
	os.Remove(path + ".lock")
	delete(aw.locks, path)
}

// isLockStale reports whether the lock file belongs to a process that is gone
func isLockStale(lockPath string) bool {
	content, err := os.ReadFile(lockPath)
	if err != nil {
		return true
	}

	var pid int
	if _, err := fmt.Sscanf(string(content), "%d", &pid); err != nil {
		return true
	}
	return !lockOwnerAlive(pid)
}

// lockOwnerAlive reports whether the process that wrote a lock file still
// runs. Windows cannot deliver signal 0, so there a process that can still be
// opened counts as alive.
func lockOwnerAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	owner, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		owner.Release()
		return true
	}
	return owner.Signal(syscall.Signal(0)) == nil
}
