package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OverrideTable is the curator-maintained ticker-to-name mapping. It takes
// precedence over the reference table when both define the same ticker.
// Mutations persist immediately; callers that hold a Resolver must
// invalidate it after any mutation so the merged lookup view is rebuilt.
type OverrideTable struct {
	path string

	mu   sync.RWMutex
	defs map[string]string
}

// overrideFile is the on-disk shape of the override table.
type overrideFile struct {
	Definitions map[string]string `json:"definitions"`
}

// OpenOverrideTable loads the override table at path, treating a missing
// file as an empty table.
func OpenOverrideTable(path string) (*OverrideTable, error) {
	t := &OverrideTable{path: path, defs: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading override table %s: %w", path, err)
	}

	var file overrideFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding override table %s: %w", path, err)
	}
	for ticker, name := range file.Definitions {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker != "" {
			t.defs[ticker] = strings.TrimSpace(name)
		}
	}
	return t, nil
}

// Add defines or redefines ticker as name and persists the table.
func (t *OverrideTable) Add(ticker, name string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	name = strings.TrimSpace(name)
	if ticker == "" {
		return fmt.Errorf("override ticker cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("override name for %s cannot be empty", ticker)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.defs[ticker] = name
	return t.save()
}

// Remove deletes the definition for ticker and persists the table.
// It reports whether a definition existed.
func (t *OverrideTable) Remove(ticker string) (bool, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.defs[ticker]; !ok {
		return false, nil
	}
	delete(t.defs, ticker)
	return true, t.save()
}

// List returns the definitions sorted by ticker.
func (t *OverrideTable) List() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.defs))
	for ticker, name := range t.defs {
		out = append(out, Entry{Ticker: ticker, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// snapshot returns a copy of the definitions for merging into a lookup view.
func (t *OverrideTable) snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.defs))
	for k, v := range t.defs {
		out[k] = v
	}
	return out
}

// save writes the table through a temp file and rename so a crash mid-write
// cannot leave a torn document. Callers hold the write lock.
func (t *OverrideTable) save() error {
	data, err := json.MarshalIndent(overrideFile{Definitions: t.defs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding override table: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".overrides-*.json")
	if err != nil {
		return fmt.Errorf("creating temp override file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing override table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing override table: %w", err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing override table %s: %w", t.path, err)
	}
	return nil
}
