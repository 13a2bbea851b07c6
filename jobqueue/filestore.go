package jobqueue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists the job list as a single JSON document, written via
// write-to-temp-then-rename so a crash mid-write never corrupts the file
// readers see (rename is atomic on the same filesystem).
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore backed by path. The file need not exist
// yet; Load returns ErrNotFound until the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// fileDocument is the persisted shape per §6: the job list plus a
// unix-timestamp save marker.
type fileDocument struct {
	Jobs    []Job `json:"jobs"`
	SavedAt int64 `json:"saved_at"`
}

// Load reads the persisted document, or ErrNotFound if path doesn't exist.
func (f *FileStore) Load() ([]Job, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading job store %s: %w", f.path, err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing job store %s: %w", f.path, err)
	}
	return doc.Jobs, nil
}

// Save writes jobs to a temp file in the same directory, then renames it
// over path — the rename is the only step visible to a concurrent reader.
func (f *FileStore) Save(jobs []Job) error {
	data, err := json.MarshalIndent(fileDocument{Jobs: jobs, SavedAt: time.Now().Unix()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling job store: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".jobqueue-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp job store: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp job store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp job store: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp job store into place: %w", err)
	}
	return nil
}
