package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/moby/sys/atomicwriter"
)

// FileStore keeps the mapping as a single flat JSON object in one file.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and decodes the file. It never fails: a missing file reports
// StatusAbsent and an unreadable or undecodable one reports StatusCorrupt.
func (s *FileStore) Load(_ context.Context) (map[string]string, LoadStatus, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, StatusAbsent, nil
	}
	if err != nil {
		log.WithError(err).WithField("path", s.Path).Warn("failed to read cache file")
		return map[string]string{}, StatusCorrupt, nil
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		log.WithError(err).WithField("path", s.Path).Warn("failed to decode cache file")
		return map[string]string{}, StatusCorrupt, nil
	}
	if entries == nil {
		// The file held JSON null.
		entries = map[string]string{}
	}

	log.WithFields(log.Fields{
		"path":    s.Path,
		"size":    humanize.Bytes(uint64(len(data))),
		"entries": len(entries),
	}).Debug("read cache file")

	return entries, StatusLoaded, nil
}

// Save encodes entries and replaces the file atomically through a
// temporary file in the same directory.
func (s *FileStore) Save(_ context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := atomicwriter.WriteFile(s.Path, data, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write cache file %s: %w", s.Path, err)
	}

	return nil
}
