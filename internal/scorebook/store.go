// Package scorebook persists metric records as a single JSON document keyed
// by canonical identity. The whole document is loaded at open, mutated in
// memory, and rewritten wholesale on save; a missing or corrupt file yields
// an empty book rather than an error so a damaged store never blocks new
// acquisition.
package scorebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ahrav/go-moat/internal/domain"
)

// document is the on-disk shape of the book. Metric values that older
// writers stored as JSON numbers are coerced to strings on decode.
type document struct {
	Companies map[string]map[string]json.RawMessage `json:"companies"`
}

// Book is the file-backed implementation of the score store. It is not safe
// for concurrent use; the interactive loop and the acquisition engine drive
// it from a single goroutine.
type Book struct {
	path    string
	records map[string]domain.MetricRecord
}

// Open loads the book at path. A missing file and an unreadable or
// undecodable document both yield an empty book; corruption is reported to
// the caller through the returned warning error while the book itself stays
// usable.
func Open(path string) (*Book, error) {
	b := &Book{path: path, records: make(map[string]domain.MetricRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return b, fmt.Errorf("reading score book %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return b, fmt.Errorf("decoding score book %s: %w", path, err)
	}

	for key, fields := range doc.Companies {
		rec := make(domain.MetricRecord, len(fields))
		for field, raw := range fields {
			rec[field] = coerceString(raw)
		}
		b.records[key] = rec
	}
	return b, nil
}

// coerceString renders a raw JSON value as the textual form records use.
// Strings are unquoted; numbers and anything else keep their literal text.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}

// Path returns the on-disk location of the book.
func (b *Book) Path() string { return b.path }

// Get returns the record stored under key.
func (b *Book) Get(key string) (domain.MetricRecord, bool) {
	rec, ok := b.records[key]
	return rec, ok
}

// Put stores rec under key, stamping the bookkeeping date and timestamp
// fields.
func (b *Book) Put(key string, rec domain.MetricRecord) {
	now := time.Now()
	rec[domain.FieldDate] = now.Format("2006-01-02")
	rec[domain.FieldTimestamp] = now.Format(time.RFC3339)
	b.records[key] = rec
}

// Delete removes the entry under key and reports whether one existed.
func (b *Book) Delete(key string) bool {
	if _, ok := b.records[key]; !ok {
		return false
	}
	delete(b.records, key)
	return true
}

// Keys returns every storage key in sorted order.
func (b *Book) Keys() []string {
	keys := make([]string, 0, len(b.records))
	for k := range b.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of records in the book.
func (b *Book) Len() int { return len(b.records) }

// Save rewrites the whole document through a temp file and rename.
func (b *Book) Save() error {
	doc := document{Companies: make(map[string]map[string]json.RawMessage, len(b.records))}
	for key, rec := range b.records {
		fields := make(map[string]json.RawMessage, len(rec))
		for field, value := range rec {
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encoding %s.%s: %w", key, field, err)
			}
			fields[field] = encoded
		}
		doc.Companies[key] = fields
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding score book: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".scores-*.json")
	if err != nil {
		return fmt.Errorf("creating temp score book: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing score book: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing score book: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing score book %s: %w", b.path, err)
	}
	return nil
}
