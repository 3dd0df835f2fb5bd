// Package prefs stores the view mode flag across tiered key-value backends.
//
// Tiers are tried in priority order: a durable SQLite table, a
// session-scoped Redis key and an in-process map. Each tier is probed once
// when the Store is built; a tier that fails the probe is skipped for the
// rest of the process. The Store never returns an error and never panics:
// an unreadable preference is grid.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hazyhaar/posview/viewmode"
)

// DefaultKey is the key the mode is stored under.
const DefaultKey = "pos_item_view_mode"

// probeKey is written, read back and deleted on every tier at startup.
const probeKey = "__posview_probe__"

// Backend is one key-value tier.
type Backend interface {
	Name() string
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store reads and writes the mode through the healthy tiers.
type Store struct {
	key    string
	tiers  []Backend
	logger *slog.Logger
}

// New probes every backend and keeps the ones that pass, in the given
// order. An in-memory tier is always appended last.
func New(ctx context.Context, key string, logger *slog.Logger, backends ...Backend) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = DefaultKey
	}
	s := &Store{key: key, logger: logger}
	for _, b := range backends {
		if b == nil {
			continue
		}
		if err := probe(ctx, b); err != nil {
			logger.Warn("prefs: tier disabled", "tier", b.Name(), "error", err)
			continue
		}
		s.tiers = append(s.tiers, b)
	}
	s.tiers = append(s.tiers, NewMemory())
	return s
}

func probe(ctx context.Context, b Backend) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prefs: probe %s: panic: %v", b.Name(), r)
		}
	}()
	want := uuid.NewString()
	if err := b.Set(ctx, probeKey, want); err != nil {
		return fmt.Errorf("prefs: probe %s: set: %w", b.Name(), err)
	}
	got, ok, err := b.Get(ctx, probeKey)
	if err != nil {
		return fmt.Errorf("prefs: probe %s: get: %w", b.Name(), err)
	}
	if !ok || got != want {
		return fmt.Errorf("prefs: probe %s: read back %q, want %q", b.Name(), got, want)
	}
	if err := b.Delete(ctx, probeKey); err != nil {
		return fmt.Errorf("prefs: probe %s: delete: %w", b.Name(), err)
	}
	return nil
}

// Key returns the key the mode is stored under.
func (s *Store) Key() string { return s.key }

// Tiers names the healthy tiers in priority order.
func (s *Store) Tiers() []string {
	out := make([]string, len(s.tiers))
	for i, b := range s.tiers {
		out[i] = b.Name()
	}
	return out
}

// Get returns the stored mode. The first tier that answers is
// authoritative: an absent key there means grid. A tier that errors is
// skipped for this call.
func (s *Store) Get(ctx context.Context) viewmode.Mode {
	for _, b := range s.tiers {
		v, ok, err := safeGet(ctx, b, s.key)
		if err != nil {
			s.logger.Debug("prefs: get failed, trying next tier", "tier", b.Name(), "error", err)
			continue
		}
		if !ok {
			return viewmode.Grid
		}
		m, err := viewmode.Parse(v)
		if err != nil {
			s.logger.Debug("prefs: stored value ignored", "tier", b.Name(), "value", v)
			return viewmode.Grid
		}
		return m
	}
	return viewmode.Grid
}

// Set stores m in the first tier that accepts the write and returns its
// name.
func (s *Store) Set(ctx context.Context, m viewmode.Mode) string {
	for _, b := range s.tiers {
		if err := safeSet(ctx, b, s.key, string(m)); err != nil {
			s.logger.Debug("prefs: set failed, trying next tier", "tier", b.Name(), "error", err)
			continue
		}
		return b.Name()
	}
	return ""
}

// Close releases backends that hold connections.
func (s *Store) Close() error {
	var errs []error
	for _, b := range s.tiers {
		if c, ok := b.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func safeGet(ctx context.Context, b Backend, key string) (v string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Get(ctx, key)
}

func safeSet(ctx context.Context, b Backend, key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Set(ctx, key, value)
}
