// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the canonical
// Listing model, its price history, and its cross-provider aliases.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Merge policy, retirement thresholds and
// identity invariants live in the service layer.
//
// Error semantics:
//   - When a listing is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// SortKey selects the search result ordering. Every ordering carries a
// stable_id tie-break so paging is deterministic across calls.
type SortKey string

// Supported sort keys.
const (
	SortLastSeen  SortKey = "last_seen"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortPpsqmAsc  SortKey = "ppsqm_asc"
	SortPpsqmDesc SortKey = "ppsqm_desc"
)

// orderClauses maps sort keys to SQL ORDER BY expressions. Rows with NULL in
// the sorted column sort last regardless of direction; stable_id breaks ties.
var orderClauses = map[SortKey]string{
	SortLastSeen:  "last_seen_at DESC, stable_id ASC",
	SortPriceAsc:  "price IS NULL, price ASC, stable_id ASC",
	SortPriceDesc: "price IS NULL, price DESC, stable_id ASC",
	SortPpsqmAsc:  "(price IS NULL OR area_sqm IS NULL), CAST(price AS REAL)/area_sqm ASC, stable_id ASC",
	SortPpsqmDesc: "(price IS NULL OR area_sqm IS NULL), CAST(price AS REAL)/area_sqm DESC, stable_id ASC",
}

// ListingFilter is the structured search filter. Zero values mean "no
// constraint"; Status defaults to active at the service layer, not here.
type ListingFilter struct {
	MinPrice         *int64
	MaxPrice         *int64
	MinArea          *float64
	MaxArea          *float64
	Rooms            []int
	Districts        []string
	Providers        []string
	ExcludeProviders []string
	Status           string
}

// CreateListing inserts a new canonical listing row.
func CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error {
	return db.WithContext(ctx).Create(l).Error
}

// SaveListing persists all fields of an existing listing row, including
// zero/NULL values (a merge may legitimately null a field).
func SaveListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error {
	return db.WithContext(ctx).Model(l).Select("*").Omit("created_at").Updates(l).Error
}

// GetListing fetches a listing by its stable id, or ErrNotFound.
func GetListing(ctx context.Context, db *gorm.DB, stableID string) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).First(&l, "stable_id = ?", stableID).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetListingByDedupKey fetches the listing holding the given dedup key, or
// ErrNotFound. This is the point read every upsert merge decision starts from.
func GetListingByDedupKey(ctx context.Context, db *gorm.DB, key string) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).First(&l, "dedup_key = ?", key).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// SearchListings returns one page of listings matching the filter in the
// given order, plus the total match count for pagination metadata.
func SearchListings(ctx context.Context, db *gorm.DB, f ListingFilter, sort SortKey, offset, limit int) ([]domain.Listing, int64, error) {
	q := db.WithContext(ctx).Model(&domain.Listing{})
	q = applyFilter(q, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Listing{}, 0, nil
	}

	order, ok := orderClauses[sort]
	if !ok {
		order = orderClauses[SortLastSeen]
	}
	var out []domain.Listing
	err := q.Order(order).Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// applyFilter composes the WHERE clause for a listing search.
func applyFilter(q *gorm.DB, f ListingFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinArea != nil {
		q = q.Where("area_sqm >= ?", *f.MinArea)
	}
	if f.MaxArea != nil {
		q = q.Where("area_sqm <= ?", *f.MaxArea)
	}
	if len(f.Rooms) > 0 {
		q = q.Where("rooms IN ?", f.Rooms)
	}
	if len(f.Districts) > 0 {
		q = q.Where("LOWER(district) IN ?", lowered(f.Districts))
	}
	if len(f.Providers) > 0 {
		q = q.Where("provider_name IN ?", f.Providers)
	}
	if len(f.ExcludeProviders) > 0 {
		q = q.Where("provider_name NOT IN ?", f.ExcludeProviders)
	}
	return q
}

func lowered(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// markAbsentBatch caps the ids bound per UPDATE. SQLite limits the number of
// bound variables per statement; a large feed observes tens of thousands of
// ids in one cycle.
var markAbsentBatch = 500

// MarkAbsent increments the missed-cycle counter for every active listing of
// the provider that was NOT observed in the current reload cycle, and resets
// the counter on every observed one. It returns nothing but the DB error;
// retirement itself is a separate step so the threshold decision stays
// auditable in one place.
//
// The absent set is computed in memory from the provider's active ids rather
// than with a NOT IN over the whole seen set, which would bind one variable
// per id; updates then run in bounded batches.
func MarkAbsent(ctx context.Context, db *gorm.DB, provider string, seen []string) error {
	if len(seen) == 0 {
		return db.WithContext(ctx).Model(&domain.Listing{}).
			Where("provider_name = ? AND status = ?", provider, domain.StatusActive).
			UpdateColumn("missed_cycles", gorm.Expr("missed_cycles + 1")).Error
	}

	var active []string
	if err := db.WithContext(ctx).Model(&domain.Listing{}).
		Where("provider_name = ? AND status = ?", provider, domain.StatusActive).
		Pluck("stable_id", &active).Error; err != nil {
		return err
	}
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}
	absent := make([]string, 0, len(active))
	for _, id := range active {
		if _, ok := seenSet[id]; !ok {
			absent = append(absent, id)
		}
	}

	for _, batch := range batchIDs(absent, markAbsentBatch) {
		if err := db.WithContext(ctx).Model(&domain.Listing{}).
			Where("stable_id IN ?", batch).
			UpdateColumn("missed_cycles", gorm.Expr("missed_cycles + 1")).Error; err != nil {
			return err
		}
	}
	for _, batch := range batchIDs(seen, markAbsentBatch) {
		if err := db.WithContext(ctx).Model(&domain.Listing{}).
			Where("provider_name = ? AND stable_id IN ? AND missed_cycles <> 0", provider, batch).
			UpdateColumn("missed_cycles", 0).Error; err != nil {
			return err
		}
	}
	return nil
}

// batchIDs splits ids into consecutive slices of at most n elements.
func batchIDs(ids []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	var out [][]string
	for len(ids) > n {
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// RetireReached transitions to retired every active listing of the provider
// whose missed-cycle counter has reached the threshold, returning the number
// of retired rows.
func RetireReached(ctx context.Context, db *gorm.DB, provider string, threshold int) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Listing{}).
		Where("provider_name = ? AND status = ? AND missed_cycles >= ?", provider, domain.StatusActive, threshold).
		Update("status", domain.StatusRetired)
	return res.RowsAffected, res.Error
}

// AppendPriceEntry records one observed price point for a listing.
func AppendPriceEntry(ctx context.Context, db *gorm.DB, listingID string, price int64, observedAt time.Time) error {
	return db.WithContext(ctx).Create(&domain.PriceEntry{
		ID:         uuid.NewString(),
		ListingID:  listingID,
		Price:      price,
		ObservedAt: observedAt,
	}).Error
}

// LastPriceEntry returns the most recent price point for a listing, or
// ErrNotFound when no history exists yet.
func LastPriceEntry(ctx context.Context, db *gorm.DB, listingID string) (*domain.PriceEntry, error) {
	var e domain.PriceEntry
	err := db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("observed_at DESC").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListPriceHistory returns the full price history of a listing ordered by
// observation time ascending. An empty slice is a valid result.
func ListPriceHistory(ctx context.Context, db *gorm.DB, listingID string) ([]domain.PriceEntry, error) {
	var out []domain.PriceEntry
	err := db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("observed_at ASC").
		Find(&out).Error
	return out, err
}

// UpsertAlias records a cross-reference from (provider, sourceID) to a
// stable id. Re-recording an existing alias is a no-op; an alias may not be
// repointed to a different listing here (that would mask an identity bug).
func UpsertAlias(ctx context.Context, db *gorm.DB, listingID, provider, sourceID, url string) error {
	if strings.TrimSpace(sourceID) == "" {
		return nil
	}
	var existing domain.ListingAlias
	err := db.WithContext(ctx).
		Where("provider_name = ? AND source_id = ?", provider, sourceID).
		First(&existing).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.WithContext(ctx).Create(&domain.ListingAlias{
			ID:           uuid.NewString(),
			ListingID:    listingID,
			ProviderName: provider,
			SourceID:     sourceID,
			URL:          url,
			CreatedAt:    time.Now().UTC(),
		}).Error
	default:
		return err
	}
}

// GetAlias fetches the alias row for a (provider, source id) tuple, or
// ErrNotFound. Services use it to detect identity conflicts before merging.
func GetAlias(ctx context.Context, db *gorm.DB, provider, sourceID string) (*domain.ListingAlias, error) {
	var a domain.ListingAlias
	err := db.WithContext(ctx).
		Where("provider_name = ? AND source_id = ?", provider, sourceID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAliases returns the recorded cross-references of a listing.
func ListAliases(ctx context.Context, db *gorm.DB, listingID string) ([]domain.ListingAlias, error) {
	var out []domain.ListingAlias
	err := db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
