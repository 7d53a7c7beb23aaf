package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
)

// RotationConfig represents log rotation configuration
type RotationConfig struct {
	MaxSize    string `json:"max_size"`    // e.g. "10MB"
	MaxAge     string `json:"max_age"`     // e.g. "7d", "24h"
	MaxBackups int    `json:"max_backups"` // rotated files kept
	Compress   bool   `json:"compress"`    // brotli-compress rotated files
}

// Validate validates rotation configuration
func (r *RotationConfig) Validate() error {
	if _, err := parseSize(r.MaxSize); err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	if _, err := parseDuration(r.MaxAge); err != nil {
		return fmt.Errorf("invalid max_age: %w", err)
	}
	if r.MaxBackups < 0 {
		return fmt.Errorf("invalid max_backups: %d", r.MaxBackups)
	}
	return nil
}

// RotatingWriter is a file writer that rotates by size or age. Rotated files
// are named <file>.<timestamp>, optionally brotli-compressed to .br.
type RotatingWriter struct {
	filename   string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int
	compress   bool

	mu         sync.Mutex
	file       *os.File
	size       int64
	lastRotate time.Time
	seq        int
}

// NewRotatingWriter opens filename for appending, creating its directory.
func NewRotatingWriter(filename string, maxSize int64, maxAge time.Duration, maxBackups int, compress bool) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	return &RotatingWriter{
		filename:   filename,
		maxSize:    maxSize,
		maxAge:     maxAge,
		maxBackups: maxBackups,
		compress:   compress,
		file:       file,
		size:       stat.Size(),
		lastRotate: time.Now(),
	}, nil
}

// Write implements io.Writer
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.needsRotation(len(p)) {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}
	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Close closes the current file
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file != nil {
		return rw.file.Close()
	}
	return nil
}

// needsRotation reports whether writing next bytes would exceed a limit. An
// empty file is never rotated, so a single oversized entry still lands.
func (rw *RotatingWriter) needsRotation(next int) bool {
	if rw.size == 0 {
		return false
	}
	if rw.maxSize > 0 && rw.size+int64(next) > rw.maxSize {
		return true
	}
	return rw.maxAge > 0 && time.Since(rw.lastRotate) >= rw.maxAge
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	rw.seq++
	rotated := fmt.Sprintf("%s.%s-%d", rw.filename, time.Now().Format("20060102-150405"), rw.seq)
	if err := os.Rename(rw.filename, rotated); err != nil {
		return fmt.Errorf("rename log file: %w", err)
	}
	if rw.compress {
		if err := compressFile(rotated); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compress log file %s: %v\n", rotated, err)
		}
	}
	if err := rw.cleanupOldBackups(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to cleanup old backups: %v\n", err)
	}

	file, err := os.OpenFile(rw.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create new log file: %w", err)
	}
	rw.file = file
	rw.size = 0
	rw.lastRotate = time.Now()
	return nil
}

// compressFile replaces filename with filename.br.
func compressFile(filename string) error {
	src, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(filename + ".br")
	if err != nil {
		return err
	}
	w := brotli.NewWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		_ = dst.Close()
		return err
	}
	if err := w.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(filename)
}

// backups returns rotated files of the log, oldest first.
func (rw *RotatingWriter) backups() ([]string, error) {
	dir := filepath.Dir(rw.filename)
	base := filepath.Base(rw.filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory: %w", err)
	}

	type backup struct {
		name    string
		modTime time.Time
	}
	var found []backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), base+".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, backup{name: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].modTime.Equal(found[j].modTime) {
			return found[i].name < found[j].name
		}
		return found[i].modTime.Before(found[j].modTime)
	})

	names := make([]string, len(found))
	for i, b := range found {
		names[i] = b.name
	}
	return names, nil
}

func (rw *RotatingWriter) cleanupOldBackups() error {
	if rw.maxBackups <= 0 {
		return nil
	}
	names, err := rw.backups()
	if err != nil {
		return err
	}
	if len(names) <= rw.maxBackups {
		return nil
	}
	for _, name := range names[:len(names)-rw.maxBackups] {
		if err := os.Remove(name); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to remove old backup %s: %v\n", name, err)
		}
	}
	return nil
}

// createRotatingWriter builds the writer for a file: output with rotation.
func createRotatingWriter(config *LogConfig) (*RotatingWriter, error) {
	maxSize, err := parseSize(config.Rotation.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("parse max size: %w", err)
	}
	maxAge, err := parseDuration(config.Rotation.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("parse max age: %w", err)
	}
	return NewRotatingWriter(
		strings.TrimPrefix(config.Output, "file:"),
		maxSize,
		maxAge,
		config.Rotation.MaxBackups,
		config.Rotation.Compress,
	)
}

// parseSize parses sizes such as "512", "64KB", "10MB" or "1GB".
func parseSize(sizeStr string) (int64, error) {
	num, unit, err := splitNumber(sizeStr)
	if err != nil || num == 0 && unit == "" {
		return num, err
	}
	switch strings.ToUpper(unit) {
	case "B", "":
		return num, nil
	case "KB":
		return num << 10, nil
	case "MB":
		return num << 20, nil
	case "GB":
		return num << 30, nil
	}
	return 0, fmt.Errorf("unknown unit: %s", unit)
}

// parseDuration accepts a day suffix ("7d") on top of time.ParseDuration.
func parseDuration(durationStr string) (time.Duration, error) {
	durationStr = strings.TrimSpace(durationStr)
	if durationStr == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(durationStr, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse days: %w", err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(durationStr)
}

func splitNumber(s string) (int64, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", nil
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("no number found in %q", s)
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse number: %w", err)
	}
	return n, strings.TrimSpace(s[i:]), nil
}
