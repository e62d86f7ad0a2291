// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the provider-status endpoint and by logging around reload cycles. Each
// function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
)

// ProviderListingStats returns aggregate metadata for one provider's
// listings: the number of active rows, the number of retired rows, and the
// most recent LastSeenAt among active rows (nil when the provider has no
// active listings).
func ProviderListingStats(ctx context.Context, db *gorm.DB, provider string) (active, retired int64, lastSeen *time.Time, err error) {
	base := db.WithContext(ctx).Model(&domain.Listing{}).Where("provider_name = ?", provider)

	if err = base.Session(&gorm.Session{}).Where("status = ?", domain.StatusActive).Count(&active).Error; err != nil {
		return 0, 0, nil, err
	}
	if err = base.Session(&gorm.Session{}).Where("status = ?", domain.StatusRetired).Count(&retired).Error; err != nil {
		return 0, 0, nil, err
	}
	if active == 0 {
		return active, retired, nil, nil
	}

	// Get latest last_seen_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		LastSeenAt time.Time
	}
	err = base.Session(&gorm.Session{}).
		Where("status = ?", domain.StatusActive).
		Select("last_seen_at").
		Order("last_seen_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, 0, nil, err
	}
	return active, retired, &row.LastSeenAt, nil
}

// CountListingsByStatus returns the global number of listings per status.
// Used for the active-listings gauge exported to Prometheus.
func CountListingsByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.Listing{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
