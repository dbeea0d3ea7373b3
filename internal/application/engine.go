// Package application orchestrates the scoring workflow: resolving
// identities, acquiring missing metrics through the oracle, persisting
// progress, and deriving rankings. It composes the domain model with the
// oracle and store ports and contains no provider or storage specifics.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/identity"
	"github.com/ahrav/go-moat/internal/ports"
)

// Engine drives idempotent metric acquisition. Every operation that can
// reach the oracle requires a resolved identity; already-present values
// are never re-asked and progress is persisted after every successful
// elicitation so a mid-batch failure loses at most the in-flight metric.
type Engine struct {
	registry *domain.Registry
	resolver *identity.Resolver
	store    ports.ScoreStore
	oracle   ports.Oracle
}

// NewEngine assembles the acquisition engine.
func NewEngine(registry *domain.Registry, resolver *identity.Resolver, store ports.ScoreStore, oracle ports.Oracle) *Engine {
	return &Engine{
		registry: registry,
		resolver: resolver,
		store:    store,
		oracle:   oracle,
	}
}

// Registry exposes the metric catalog for display layers.
func (e *Engine) Registry() *domain.Registry { return e.registry }

// Resolver exposes identity resolution for display and curation layers.
func (e *Engine) Resolver() *identity.Resolver { return e.resolver }

// Store exposes the score store for display layers.
func (e *Engine) Store() ports.ScoreStore { return e.store }

// EnsureScored resolves raw input and brings its record to completeness,
// eliciting only the metrics that are missing. A fully complete record
// returns immediately with zero oracle calls. Per-metric failures are
// joined and returned alongside the partial record; acquisition continues
// past individual failures so one bad metric does not block the rest.
func (e *Engine) EnsureScored(ctx context.Context, raw string) (domain.Identity, domain.MetricRecord, error) {
	id, err := e.resolver.Resolve(raw)
	if err != nil {
		return domain.Identity{}, nil, err
	}

	rec, adoptErr := e.adoptRecord(id)

	if rec.Complete(e.registry) {
		return id, rec, adoptErr
	}

	var elicitErrs []error
	if adoptErr != nil {
		elicitErrs = append(elicitErrs, adoptErr)
	}
	for _, key := range rec.Missing(e.registry) {
		if err := ctx.Err(); err != nil {
			elicitErrs = append(elicitErrs, err)
			break
		}

		def, err := e.registry.Lookup(key)
		if err != nil {
			elicitErrs = append(elicitErrs, err)
			continue
		}

		value, err := e.oracle.Elicit(ctx, id.Label, def)
		if err != nil {
			elicitErrs = append(elicitErrs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			elicitErrs = append(elicitErrs, fmt.Errorf("%s: blank rating", key))
			continue
		}

		rec[key] = value
		e.store.Put(id.Key, rec)
		if err := e.store.Save(); err != nil {
			elicitErrs = append(elicitErrs, fmt.Errorf("persisting %s: %w", id.Key, err))
		}
	}

	return id, rec, errors.Join(elicitErrs...)
}

// adoptRecord returns the record for the canonical key, absorbing any
// legacy records stored under the lowercased key or the lowercased
// company name. Absorbed values never overwrite canonical ones, and the
// legacy entries are removed and the store saved so future lookups and a
// reopened store both hit only the canonical key.
func (e *Engine) adoptRecord(id domain.Identity) (domain.MetricRecord, error) {
	rec, ok := e.store.Get(id.Key)
	if !ok {
		rec = make(domain.MetricRecord)
	}

	migrated := false
	for _, legacy := range []string{strings.ToLower(id.Key), strings.ToLower(id.Label)} {
		if legacy == id.Key || legacy == "" {
			continue
		}
		old, ok := e.store.Get(legacy)
		if !ok {
			continue
		}
		rec.Merge(old)
		e.store.Delete(legacy)
		migrated = true
	}

	if migrated {
		e.store.Put(id.Key, rec)
		if err := e.store.Save(); err != nil {
			return rec, fmt.Errorf("persisting %s: %w", id.Key, err)
		}
	}
	return rec, nil
}

// Lookup returns the stored record for raw input without touching the
// oracle. It probes the canonical key when resolution succeeds and the
// lowercase fallback key otherwise, so legacy name-keyed records stay
// readable.
func (e *Engine) Lookup(raw string) (domain.Identity, domain.MetricRecord, bool) {
	if id, err := e.resolver.Resolve(raw); err == nil {
		if rec, ok := e.store.Get(id.Key); ok {
			return id, rec, true
		}
	}

	id := identity.Fallback(raw)
	if rec, ok := e.store.Get(id.Key); ok {
		return id, rec, true
	}
	return id, nil, false
}

// Delete removes the record for raw input, trying the canonical key first
// and the lowercase fallback key second. It persists the store when an
// entry was removed.
func (e *Engine) Delete(raw string) (bool, error) {
	removed := false
	if id, err := e.resolver.Resolve(raw); err == nil {
		removed = e.store.Delete(id.Key)
	}
	if !removed {
		removed = e.store.Delete(identity.Fallback(raw).Key)
	}
	if !removed {
		return false, nil
	}
	return true, e.store.Save()
}

// Fill walks every stored record and elicits its missing metrics. It
// returns the number of values filled; per-record failures are joined and
// the walk continues so one entity's failure does not starve the rest.
func (e *Engine) Fill(ctx context.Context) (int, error) {
	filled := 0
	var errs []error

	for _, key := range e.store.Keys() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		rec, ok := e.store.Get(key)
		if !ok || rec.Complete(e.registry) {
			continue
		}

		before := len(rec.Missing(e.registry))
		if _, after, err := e.EnsureScored(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			// A nil record means acquisition never started, e.g. the key
			// no longer resolves; nothing was filled for it.
			if after != nil {
				filled += before - len(after.Missing(e.registry))
			}
		} else {
			filled += before
		}
	}

	return filled, errors.Join(errs...)
}

// Population returns the totals of every complete record, the comparison
// basis for percentile ranks. Incomplete records are excluded so partial
// acquisition cannot drag percentiles down.
func (e *Engine) Population() []float64 {
	var totals []float64
	for _, key := range e.store.Keys() {
		rec, ok := e.store.Get(key)
		if !ok || !rec.Complete(e.registry) {
			continue
		}
		if total, err := domain.TotalScore(e.registry, rec); err == nil {
			totals = append(totals, total)
		}
	}
	return totals
}

// Summarize derives the aggregate view of a record against the current
// population. Percentiles are recomputed from the store on every call.
func (e *Engine) Summarize(rec domain.MetricRecord) domain.AggregateResult {
	return domain.Aggregate(e.registry, rec, e.Population())
}
