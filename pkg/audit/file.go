package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileRecorder writes audit events as JSON lines to a file, rotating by
// size. Rotated files are named audit-<unix-nanos>.log and pruned by the
// Retention job.
type FileRecorder struct {
	basePath string
	maxSize  int64
	now      func() time.Time

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	written int64
}

// FileRecorderConfig configures the file recorder.
type FileRecorderConfig struct {
	BasePath string // Directory for audit logs
	MaxSize  int64  // Max file size in bytes before rotation (default 100MB)
}

// DefaultFileRecorderConfig returns default configuration.
func DefaultFileRecorderConfig() FileRecorderConfig {
	return FileRecorderConfig{
		BasePath: "/var/log/bazaar/audit",
		MaxSize:  100 * 1024 * 1024,
	}
}

// NewFileRecorder creates a file-based audit recorder.
func NewFileRecorder(config FileRecorderConfig) (*FileRecorder, error) {
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	r := &FileRecorder{
		basePath: config.BasePath,
		maxSize:  config.MaxSize,
		now:      time.Now,
	}
	if r.maxSize <= 0 {
		r.maxSize = 100 * 1024 * 1024
	}

	if err := r.openLogFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRecorder) currentPath() string {
	return filepath.Join(r.basePath, "audit.log")
}

func (r *FileRecorder) openLogFile() error {
	filename := r.currentPath()

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat audit log file: %w", err)
	}

	r.file = file
	r.encoder = json.NewEncoder(file)
	r.written = info.Size()
	return nil
}

// rotate renames the current file aside and opens a fresh one. Caller holds
// the mutex.
func (r *FileRecorder) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	rotated := filepath.Join(r.basePath, fmt.Sprintf("audit-%d.log", r.now().UnixNano()))
	if err := os.Rename(r.currentPath(), rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}
	return r.openLogFile()
}

// LogSecurityEvent appends the event as one JSON line. Write failures are
// swallowed: the sink must never fail the decision it records.
func (r *FileRecorder) LogSecurityEvent(ctx context.Context, event Event) {
	event.normalize(r.now)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return
	}
	if r.written >= r.maxSize {
		if err := r.rotate(); err != nil {
			return
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	n, err := r.file.Write(append(data, '\n'))
	if err != nil {
		return
	}
	r.written += int64(n)
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
