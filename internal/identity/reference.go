// Package identity resolves free-form input (ticker symbols, aliases,
// partial company names) into the single canonical identity used to address
// score records. Resolution is pure given the reference, override, and
// alias tables as inputs; the tables themselves are loaded once and cached
// behind an explicit invalidation hook.
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder.
// This avoids creating a new caser for each string comparison.
var foldCaser = cases.Fold()

func fold(s string) string { return foldCaser.String(s) }

// Entry is one ticker-to-company-name mapping.
type Entry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// ReferenceTable is the read-only ticker-to-name mapping loaded from an
// external data source. The core treats it as immutable for a process
// lifetime. Name matching walks entries in a deterministic order: shortest
// reference name first, ties broken by ticker, so substring resolution is
// reproducible across runs.
type ReferenceTable struct {
	byTicker   map[string]Entry
	matchOrder []foldedEntry
}

type foldedEntry struct {
	Entry
	foldedName string
}

// NewReferenceTable builds a table from entries. Tickers are upper-cased
// and blank entries dropped; when the same ticker appears twice the later
// entry wins, which lets callers layer a curated override table on top of
// the reference data.
func NewReferenceTable(entries []Entry) *ReferenceTable {
	t := &ReferenceTable{byTicker: make(map[string]Entry, len(entries))}

	for _, e := range entries {
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		name := strings.TrimSpace(e.Name)
		if ticker == "" {
			continue
		}
		t.byTicker[ticker] = Entry{Ticker: ticker, Name: name}
	}

	t.matchOrder = make([]foldedEntry, 0, len(t.byTicker))
	for _, e := range t.byTicker {
		if e.Name == "" {
			continue
		}
		t.matchOrder = append(t.matchOrder, foldedEntry{Entry: e, foldedName: fold(e.Name)})
	}
	sort.Slice(t.matchOrder, func(i, j int) bool {
		a, b := t.matchOrder[i], t.matchOrder[j]
		if len(a.foldedName) != len(b.foldedName) {
			return len(a.foldedName) < len(b.foldedName)
		}
		return a.Ticker < b.Ticker
	})

	return t
}

// NameFor returns the company name mapped to ticker.
func (t *ReferenceTable) NameFor(ticker string) (string, bool) {
	e, ok := t.byTicker[strings.ToUpper(ticker)]
	if !ok {
		return "", false
	}
	return e.Name, true
}

// Len returns the number of tickers in the table.
func (t *ReferenceTable) Len() int { return len(t.byTicker) }

// Entries returns the table's entries in match order.
func (t *ReferenceTable) Entries() []Entry {
	out := make([]Entry, len(t.matchOrder))
	for i, e := range t.matchOrder {
		out[i] = e.Entry
	}
	return out
}

// referenceFile is the on-disk shape of the reference data source.
type referenceFile struct {
	Companies []Entry `json:"companies"`
}

// FileSource loads a ReferenceTable from a JSON file exactly once per
// process, collapsing concurrent first loads through singleflight.
// Invalidate drops the cached table so the next Table call reloads it.
type FileSource struct {
	path string

	group singleflight.Group

	mu    sync.RWMutex
	table *ReferenceTable
}

// NewFileSource creates a source backed by the JSON file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Table returns the loaded reference table, reading the file on first use.
func (s *FileSource) Table() (*ReferenceTable, error) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	v, err, _ := s.group.Do("load", func() (any, error) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("reading reference table %s: %w", s.path, err)
		}

		var file referenceFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decoding reference table %s: %w", s.path, err)
		}

		loaded := NewReferenceTable(file.Companies)

		s.mu.Lock()
		s.table = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ReferenceTable), nil
}

// Invalidate drops the cached table.
func (s *FileSource) Invalidate() {
	s.mu.Lock()
	s.table = nil
	s.mu.Unlock()
}

// StaticSource serves a fixed in-memory table. It is the source of choice
// for tests and for embedding small curated universes.
type StaticSource struct{ table *ReferenceTable }

// NewStaticSource wraps an in-memory table as a Source.
func NewStaticSource(entries []Entry) *StaticSource {
	return &StaticSource{table: NewReferenceTable(entries)}
}

// Table returns the wrapped table.
func (s *StaticSource) Table() (*ReferenceTable, error) { return s.table, nil }

// Source supplies the reference table to a Resolver.
type Source interface {
	Table() (*ReferenceTable, error)
}
