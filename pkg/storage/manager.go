package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	errs "storypark/pkg/errors"
)

// Manager writes media files under an archive root. The filesystem is the
// only record of what has been archived: a regular file at the target path
// means the item is done.
type Manager struct {
	root  string
	saved atomic.Int64
	bytes atomic.Int64
}

// NewManager creates the archive root if needed and returns a manager for it
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, errs.New(errs.ErrorTypeConfig, 0, "archive root path is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create archive root %s", root)
	}
	return &Manager{root: root}, nil
}

// Exists reports whether a regular file is present at path. Directories and
// other non-regular entries do not count.
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Save writes r to path, creating parent directories. Data goes to a
// uniquely named sibling first and is renamed into place once complete, so
// an interrupted write never leaves a file at path.
func (m *Manager) Save(r io.Reader, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create directory for %s", path)
	}

	tempFile := fmt.Sprintf("%s.%s.part", path, uuid.NewString())
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to write %s", path)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, closeErr, "failed to close %s", tempFile)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return 0, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to move file into place")
	}

	m.saved.Add(1)
	m.bytes.Add(n)
	return n, nil
}

// Root returns the archive root path
func (m *Manager) Root() string {
	return m.root
}

// SavedCount returns the number of files written by this manager
func (m *Manager) SavedCount() int64 {
	return m.saved.Load()
}

// SavedBytes returns the total size of files written by this manager
func (m *Manager) SavedBytes() int64 {
	return m.bytes.Load()
}
