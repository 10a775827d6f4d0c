package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dentist-scraper/models"
)

// JSONWriter writes the accepted listings as one indented JSON array, the
// document the downstream app imports.
type JSONWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONWriter creates (or truncates) the JSON file at path. Intermediate
// directories are created automatically.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("json: create file %q: %w", path, err)
	}
	return &JSONWriter{path: path, file: f}, nil
}

// Write replaces the file contents with listings.
func (j *JSONWriter) Write(listings []*models.Listing) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if listings == nil {
		listings = []*models.Listing{}
	}
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode listings: %w", err)
	}
	data = append(data, '\n')

	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("json: truncate %q: %w", j.path, err)
	}
	if _, err := j.file.WriteAt(data, 0); err != nil {
		return fmt.Errorf("json: write %q: %w", j.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (j *JSONWriter) Close() error {
	return j.file.Close()
}
