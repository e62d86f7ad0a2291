// Package services – ProviderService
//
// This file implements the provider status view: configuration, listing
// population, and reload health for every configured feed, merged from the
// provider config and the persisted feed state.
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/repo"
)

// ProviderStatus is the operator-facing health view of one provider.
type ProviderStatus struct {
	Name                string     `json:"name"`
	Format              string     `json:"format"`
	URL                 string     `json:"url"`
	ActiveListings      int64      `json:"active_listings"`
	RetiredListings     int64      `json:"retired_listings"`
	LastSeenAt          *time.Time `json:"last_seen_at,omitempty"`
	LastReloadAt        *time.Time `json:"last_reload_at,omitempty"`
	LastReloadStatus    string     `json:"last_reload_status,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	// Excluded reports whether the provider is currently out of the default
	// search scope because of repeated reload failures.
	Excluded bool `json:"excluded"`
}

// ProviderService assembles provider status from config and persisted state.
type ProviderService struct {
	// DB is the GORM handle used for queries.
	DB *gorm.DB
	// Providers is the configured feed set, keyed by name.
	Providers map[string]ProviderSpec
	// FailureThreshold mirrors the search-scope exclusion threshold.
	FailureThreshold int
}

// NewProviderService constructs a ProviderService over the given provider set.
func NewProviderService(db *gorm.DB, providers []ProviderSpec, failureThreshold int) *ProviderService {
	byName := make(map[string]ProviderSpec, len(providers))
	for _, p := range providers {
		byName[p.Name] = p
	}
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &ProviderService{DB: db, Providers: byName, FailureThreshold: failureThreshold}
}

// Status returns the health view of one configured provider.
func (s *ProviderService) Status(ctx context.Context, name string) (*ProviderStatus, error) {
	spec, ok := s.Providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}

	st := &ProviderStatus{Name: spec.Name, Format: spec.Format, URL: spec.URL}

	active, retired, lastSeen, err := repo.ProviderListingStats(ctx, s.DB, name)
	if err != nil {
		return nil, err
	}
	st.ActiveListings = active
	st.RetiredListings = retired
	st.LastSeenAt = lastSeen

	state, err := repo.GetProviderState(ctx, s.DB, name)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// Never reloaded yet: config-only view.
		return st, nil
	case err != nil:
		return nil, err
	}
	st.LastReloadAt = state.LastReloadAt
	st.LastReloadStatus = state.LastReloadStatus
	st.ConsecutiveFailures = state.ConsecutiveFailures
	st.Excluded = state.ConsecutiveFailures >= s.FailureThreshold
	return st, nil
}

// List returns the health view of every configured provider, sorted by name.
func (s *ProviderService) List(ctx context.Context) ([]ProviderStatus, error) {
	names := make([]string, 0, len(s.Providers))
	for name := range s.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProviderStatus, 0, len(names))
	for _, name := range names {
		st, err := s.Status(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}
