package compdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/albertocavalcante/ccflags/internal/log"
)

// Write stores entries at path atomically. It reports false without
// touching the file when the existing content is identical, so editors
// watching the database do not reindex for nothing.
func Write(path string, entries []Entry) (bool, error) {
	data, err := Marshal(entries)
	if err != nil {
		return false, err
	}

	if existing, err := hashFile(path); err == nil && existing == xxhash.Sum64(data) {
		log.Component("compdb").Info("database unchanged", "path", path)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create database directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write temp database file: %w", err)
	}

	// Rename is atomic on POSIX, so readers never see a partial file.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("failed to rename database file: %w", err)
	}

	log.Component("compdb").Info("database written", "path", path, "entries", len(entries))
	return true, nil
}

// Read loads a database written by Write (or any tool using the
// "arguments" form).
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse database %s: %w", path, err)
	}
	return entries, nil
}

// hashFile computes the xxHash64 of a file's contents.
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}
