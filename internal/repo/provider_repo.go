// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-provider
// feed state: last reload outcome and the consecutive-failure counter that
// gates a provider out of the default search scope.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
)

// GetProviderState fetches the feed state row for one provider, or
// ErrNotFound when the provider has never completed a reload cycle.
func GetProviderState(ctx context.Context, db *gorm.DB, name string) (*domain.ProviderFeedState, error) {
	var st domain.ProviderFeedState
	if err := db.WithContext(ctx).First(&st, "provider_name = ?", name).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// ListProviderStates returns the feed state of every known provider,
// ordered by name for deterministic output.
func ListProviderStates(ctx context.Context, db *gorm.DB) ([]domain.ProviderFeedState, error) {
	var out []domain.ProviderFeedState
	err := db.WithContext(ctx).Order("provider_name ASC").Find(&out).Error
	return out, err
}

// RecordReloadOutcome persists the result of one reload cycle. A success or
// partial outcome resets the consecutive-failure counter; a failed outcome
// increments it. The row is created on first use.
func RecordReloadOutcome(ctx context.Context, db *gorm.DB, name, status string, at time.Time) (*domain.ProviderFeedState, error) {
	var st domain.ProviderFeedState
	err := db.WithContext(ctx).First(&st, "provider_name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = domain.ProviderFeedState{ProviderName: name}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	st.LastReloadAt = &at
	st.LastReloadStatus = status
	if status == domain.ReloadFailed {
		st.ConsecutiveFailures++
	} else {
		st.ConsecutiveFailures = 0
	}

	if err := db.WithContext(ctx).Save(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// FailedProviderNames returns the providers whose consecutive-failure count
// has reached the threshold. These are excluded from the default
// "search all providers" scope until a successful reload resets them.
func FailedProviderNames(ctx context.Context, db *gorm.DB, threshold int) ([]string, error) {
	if threshold <= 0 {
		threshold = 1
	}
	var names []string
	err := db.WithContext(ctx).Model(&domain.ProviderFeedState{}).
		Where("consecutive_failures >= ?", threshold).
		Order("provider_name ASC").
		Pluck("provider_name", &names).Error
	return names, err
}
