package identity

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-moat/internal/domain"
)

// MaxTickerLength bounds the ticker-candidate heuristic: a trimmed input of
// one to six alphabetic characters is treated as a potential ticker symbol.
const MaxTickerLength = 6

// IsTickerCandidate reports whether the trimmed input looks like a ticker
// symbol. This is the single home of the heuristic; every component that
// needs "is this a ticker" calls it rather than re-deriving length and
// alphabet checks.
func IsTickerCandidate(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 1 || len(s) > MaxTickerLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// DefaultAliases maps well-known shorthand company names to tickers.
// Lookups are case-insensitive; an alias only resolves when its ticker is
// present in the merged reference/override view.
func DefaultAliases() map[string]string {
	return map[string]string{
		"google":     "GOOGL",
		"tsmc":       "TSM",
		"meta":       "META",
		"nvidia":     "NVDA",
		"amazon":     "AMZN",
		"apple":      "AAPL",
		"microsoft":  "MSFT",
		"tesla":      "TSLA",
		"adobe":      "ADBE",
		"salesforce": "CRM",
		"broadcom":   "AVGO",
		"oracle":     "ORCL",
		"lululemon":  "LULU",
		"paypal":     "PYPL",
		"prologis":   "PLD",
		"dell":       "DELL",
		"micron":     "MU",
		"amd":        "AMD",
	}
}

// Resolver maps free-form input to canonical identities. It merges the
// reference table with the curated override table into a cached lookup
// view; Invalidate must be called after any override mutation so the view
// is rebuilt on next use.
type Resolver struct {
	source    Source
	overrides *OverrideTable
	aliases   map[string]string

	mu   sync.Mutex
	view *lookupView
}

// lookupView is the merged, fold-normalized snapshot resolution runs
// against.
type lookupView struct {
	byTicker   map[string]Entry
	matchOrder []foldedEntry
}

// NewResolver creates a resolver over the given reference source.
// overrides may be nil; aliases defaults to DefaultAliases when nil.
func NewResolver(source Source, overrides *OverrideTable, aliases map[string]string) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	folded := make(map[string]string, len(aliases))
	for name, ticker := range aliases {
		folded[fold(strings.TrimSpace(name))] = strings.ToUpper(ticker)
	}
	return &Resolver{source: source, overrides: overrides, aliases: folded}
}

// Invalidate drops the cached lookup view. Call it after any override-table
// mutation.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.view = nil
	r.mu.Unlock()
}

// currentView returns the merged lookup view, building it on first use.
func (r *Resolver) currentView() (*lookupView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view != nil {
		return r.view, nil
	}

	table, err := r.source.Table()
	if err != nil {
		return nil, err
	}

	merged := make([]Entry, 0, table.Len())
	merged = append(merged, table.Entries()...)
	if r.overrides != nil {
		for ticker, name := range r.overrides.snapshot() {
			merged = append(merged, Entry{Ticker: ticker, Name: name})
		}
	}

	// NewReferenceTable keeps the later entry on ticker collisions, which
	// gives the override table precedence.
	view := NewReferenceTable(merged)
	r.view = &lookupView{byTicker: view.byTicker, matchOrder: view.matchOrder}
	return r.view, nil
}

// Resolve maps raw input to a canonical identity. The chain is: ticker
// candidate against the merged ticker view, then alias, then exact
// case-insensitive name, then substring in either direction walking
// reference names shortest-first. It returns ErrUnresolvedIdentity when
// nothing matches; callers on legacy display paths may then fall back to
// Fallback.
func (r *Resolver) Resolve(raw string) (domain.Identity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty input", domain.ErrUnresolvedIdentity)
	}

	view, err := r.currentView()
	if err != nil {
		return domain.Identity{}, err
	}

	if IsTickerCandidate(trimmed) {
		upper := strings.ToUpper(trimmed)
		if e, ok := view.byTicker[upper]; ok {
			return tickerIdentity(e), nil
		}
	}

	if e, ok := r.matchName(view, trimmed); ok {
		return tickerIdentity(e), nil
	}

	return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedIdentity, trimmed)
}

// TickerForName performs the alias, exact, and substring chain without the
// ticker-candidate shortcut. It is used when displaying legacy name-keyed
// records with their ticker if one now exists.
func (r *Resolver) TickerForName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}

	view, err := r.currentView()
	if err != nil {
		return "", false
	}

	if e, ok := r.matchName(view, trimmed); ok {
		return e.Ticker, true
	}
	return "", false
}

// matchName runs alias, then exact case-insensitive name, then substring
// matching in view's deterministic match order. First match wins; multiple
// substring hits are not ranked beyond the fixed ordering.
func (r *Resolver) matchName(view *lookupView, trimmed string) (Entry, bool) {
	folded := fold(trimmed)

	if ticker, ok := r.aliases[folded]; ok {
		if e, ok := view.byTicker[ticker]; ok {
			return e, true
		}
	}

	for _, e := range view.matchOrder {
		if e.foldedName == folded {
			return e.Entry, true
		}
	}

	for _, e := range view.matchOrder {
		if strings.Contains(e.foldedName, folded) || strings.Contains(folded, e.foldedName) {
			return e.Entry, true
		}
	}

	return Entry{}, false
}

// Fallback builds the unresolved identity for raw input: keyed by the
// trimmed-and-lowercased string, for backward compatibility with
// historical records keyed by free-text name. Only contexts that
// explicitly allow unresolved identities (display, lookup, delete) use it;
// acquisition never does.
func Fallback(raw string) domain.Identity {
	trimmed := strings.TrimSpace(raw)
	return domain.Identity{Key: strings.ToLower(trimmed), Label: trimmed}
}

// CanonicalKey resolves raw input to its storage key without requiring a
// known ticker: the resolved canonical key when resolution succeeds, the
// lowercase fallback otherwise.
func (r *Resolver) CanonicalKey(raw string) string {
	if id, err := r.Resolve(raw); err == nil {
		return id.Key
	}
	return Fallback(raw).Key
}

// Suggestion is one did-you-mean candidate for a failed resolution.
type Suggestion struct {
	Entry
	// Distance is the Levenshtein distance between the folded input and
	// the closer of the candidate's ticker or name.
	Distance int
}

// Suggest returns up to n reference entries closest to the input by edit
// distance, nearest first. It is purely advisory: suggestions never feed
// back into resolution.
func (r *Resolver) Suggest(raw string, n int) []Suggestion {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || n <= 0 {
		return nil
	}

	view, err := r.currentView()
	if err != nil {
		return nil
	}

	folded := fold(trimmed)
	candidates := make([]Suggestion, 0, len(view.matchOrder))
	for _, e := range view.matchOrder {
		d := levenshtein.ComputeDistance(folded, fold(e.Ticker))
		if nd := levenshtein.ComputeDistance(folded, e.foldedName); nd < d {
			d = nd
		}
		candidates = append(candidates, Suggestion{Entry: e.Entry, Distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func tickerIdentity(e Entry) domain.Identity {
	label := e.Name
	if label == "" {
		label = e.Ticker
	}
	return domain.Identity{Key: e.Ticker, Label: label, Ticker: e.Ticker}
}
