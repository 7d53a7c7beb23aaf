package source

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytget/sigdecipher/internal/logger"
)

// Archive stores script text by version key.
type Archive interface {
	Get(key string) (string, bool)
	Set(key, script string) error
}

// MemoryArchive keeps scripts in memory.
type MemoryArchive struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{data: make(map[string]string)}
}

// Get retrieves a script by version key
func (a *MemoryArchive) Get(key string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.data[key]
	return v, ok
}

// Set stores a script
func (a *MemoryArchive) Set(key, script string) error {
	a.mu.Lock()
	a.data[key] = script
	a.mu.Unlock()
	return nil
}

// FileArchive stores brotli-compressed scripts on disk, one file per key.
// Unreadable files are treated as missing and removed.
type FileArchive struct {
	rootDir string
	mu      sync.Mutex
	log     *logger.ComponentLogger
}

// NewFileArchive creates a file-backed archive under rootDir.
// The directory will be created if it does not exist.
func NewFileArchive(rootDir string) (*FileArchive, error) {
	if rootDir == "" {
		return nil, errors.New("rootDir is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	return &FileArchive{rootDir: rootDir, log: logger.WithComponent(logger.ComponentSource)}, nil
}

// Path returns the file that holds key.
func (a *FileArchive) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(a.rootDir, fmt.Sprintf("%x.js%s", sum[:], BrotliExt))
}

// Get implements Archive.
func (a *FileArchive) Get(key string) (string, bool) {
	fn := a.Path(key)
	script, err := Load(fn)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.log.Warn("dropping unreadable archive entry", logger.Fields{"version": key, "error": err.Error()})
			_ = os.Remove(fn)
		}
		return "", false
	}
	return script, true
}

// Set implements Archive. The file is written to a temporary name and
// renamed into place.
func (a *FileArchive) Set(key, script string) error {
	b, err := Compress(script)
	if err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	fn := a.Path(key)
	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, fn); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	a.log.Debug("script archived", logger.Fields{"version": key, "bytes": len(b)})
	return nil
}
