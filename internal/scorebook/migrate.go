package scorebook

import (
	"sort"
	"strings"
	"time"

	"github.com/ahrav/go-moat/internal/domain"
)

// Resolver is the slice of identity resolution the migration steps need.
type Resolver interface {
	Resolve(raw string) (domain.Identity, error)
}

// Migration summarizes what a migration pass changed.
type Migration struct {
	// Renamed maps old storage keys to the keys they were folded into.
	Renamed map[string]string

	// Dropped lists keys whose records lost a collision and were discarded.
	Dropped []string
}

// Changed reports whether the pass touched anything.
func (m Migration) Changed() bool { return len(m.Renamed) > 0 }

// NormalizeKeys folds legacy mixed-case name keys to lowercase. Keys that
// already resolve to themselves under r, notably canonical ticker keys,
// are left alone so a normalized book is a fixed point; a nil resolver
// folds unconditionally. When two keys collapse onto the same folded key
// the fresher record wins: later timestamp first, then later date, then
// the record already in place. The pass only rewrites the in-memory book;
// callers Save afterwards.
func (b *Book) NormalizeKeys(r Resolver) Migration {
	m := Migration{Renamed: make(map[string]string)}

	for _, key := range b.Keys() {
		folded := strings.ToLower(key)
		if folded == key {
			continue
		}
		if r != nil {
			if id, err := r.Resolve(key); err == nil && id.Key == key {
				continue
			}
		}
		b.fold(key, folded, &m)
	}
	return m
}

// MigrateToTickers re-keys every record whose key resolves to a ticker under
// the resolver. Records that do not resolve keep their name key; collisions
// between a name record and an existing ticker record keep the fresher of
// the two. The pass only rewrites the in-memory book; callers Save
// afterwards.
func (b *Book) MigrateToTickers(r Resolver) Migration {
	m := Migration{Renamed: make(map[string]string)}

	for _, key := range b.Keys() {
		id, err := r.Resolve(key)
		if err != nil || !id.Resolved() || id.Key == key {
			continue
		}
		b.fold(key, id.Key, &m)
	}
	return m
}

// fold moves the record at oldKey under newKey, keeping the fresher record
// when newKey is already occupied.
func (b *Book) fold(oldKey, newKey string, m *Migration) {
	moving := b.records[oldKey]

	if existing, ok := b.records[newKey]; ok {
		if fresher(existing, moving) {
			m.Dropped = append(m.Dropped, oldKey)
		} else {
			b.records[newKey] = moving
			m.Dropped = append(m.Dropped, newKey)
		}
	} else {
		b.records[newKey] = moving
	}

	delete(b.records, oldKey)
	m.Renamed[oldKey] = newKey
	sort.Strings(m.Dropped)
}

// fresher reports whether a is at least as fresh as b: later timestamp
// first, then later date, with a winning ties so the record already in
// place is kept.
func fresher(a, b domain.MetricRecord) bool {
	at, aok := parseStamp(a[domain.FieldTimestamp])
	bt, bok := parseStamp(b[domain.FieldTimestamp])
	switch {
	case aok && bok && !at.Equal(bt):
		return at.After(bt)
	case aok != bok:
		return aok
	}

	ad, bd := a[domain.FieldDate], b[domain.FieldDate]
	if ad != bd {
		return ad > bd
	}
	return true
}

func parseStamp(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
