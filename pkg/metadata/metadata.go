package metadata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Item is the record of one media file that landed on disk
type Item struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	ChildID     string    `json:"child_id,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	SavedAt     time.Time `json:"saved_at"`
}

// Recorder receives completed items
type Recorder interface {
	Record(item Item) error
	Close() error
}

// Manifest appends completed items to a JSON Lines file
type Manifest struct {
	path string
	file *os.File
	w    *bufio.Writer
	mu   sync.Mutex
}

// OpenManifest opens path for appending, creating it and its directory if needed
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}

	return &Manifest{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Record appends one item as a single JSON line. Safe for concurrent use.
func (m *Manifest) Record(item Item) error {
	if item.SavedAt.IsZero() {
		item.SavedAt = time.Now().UTC()
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest item: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write manifest item: %w", err)
	}
	// flush per line so a crash loses at most the item being written
	return m.w.Flush()
}

// Close flushes and closes the manifest file
func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.w.Flush(); err != nil {
		m.file.Close()
		return fmt.Errorf("failed to flush manifest: %w", err)
	}
	return m.file.Close()
}

// Path returns the manifest file path
func (m *Manifest) Path() string {
	return m.path
}

// Discard is a Recorder that drops every item
type Discard struct{}

func (Discard) Record(Item) error { return nil }
func (Discard) Close() error      { return nil }

// Load reads every item from a manifest file
func Load(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var items []Item
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var item Item
		if err := json.Unmarshal(scanner.Bytes(), &item); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return items, nil
}
