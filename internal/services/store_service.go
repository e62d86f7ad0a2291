// Package services – ListingStore
//
// This file implements the ListingStore, which owns the write path of the
// listing catalog. It turns parsed feed candidates into canonical listings:
// fingerprint matching against the existing population, field-level merging
// under the configured completeness policy, price-history maintenance, and
// the absence-based retirement primitive used at the end of a reload cycle.
//
// Concurrency: concurrent upserts of the same fingerprint are serialized on a
// striped mutex keyed by the dedup key, so the read-merge-write sequence for
// one identity never interleaves. Distinct identities proceed in parallel and
// each upsert runs inside a DB transaction.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/fingerprint"
	"github.com/homefeed/go-listing-backend/internal/repo"
)

// UpsertAction describes what an upsert did to the catalog.
type UpsertAction string

// Upsert outcomes.
const (
	ActionInserted  UpsertAction = "inserted"
	ActionUpdated   UpsertAction = "updated"
	ActionUnchanged UpsertAction = "unchanged"
)

// UpsertResult reports the canonical listing an ingested candidate resolved
// to and what happened to it.
type UpsertResult struct {
	StableID string
	Action   UpsertAction
}

// lockStripes is the size of the upsert mutex pool. Collisions only cost
// serialization of unrelated keys, never correctness.
const lockStripes = 64

// ListingStore provides the write-side operations of the listing catalog.
type ListingStore struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Matcher produces the dedup key candidates are matched on.
	Matcher fingerprint.Matcher

	// PreferComplete, when true, applies the completeness merge policy: a
	// candidate at least as complete as the stored record dominates it, a
	// strictly less complete one only fills gaps. When false the latest feed
	// record is authoritative, including its gaps.
	PreferComplete bool

	// Now is the clock, overridable in tests.
	Now func() time.Time

	locks [lockStripes]sync.Mutex
}

// NewListingStore constructs a ListingStore with the real clock.
func NewListingStore(db *gorm.DB, m fingerprint.Matcher, preferComplete bool) *ListingStore {
	return &ListingStore{
		DB:             db,
		Matcher:        m,
		PreferComplete: preferComplete,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *ListingStore) lockFor(key string) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(key)%lockStripes]
}

// Upsert resolves one parsed candidate to a canonical listing: inserting a
// new row, merging into a fingerprint match, or just refreshing the
// last-seen timestamp when nothing changed. It returns ErrConsistency when
// the candidate's (provider, source id) alias already points at a different
// stable id than its fingerprint matched.
func (s *ListingStore) Upsert(ctx context.Context, c *domain.Candidate) (*UpsertResult, error) {
	key := s.Matcher.Key(c)
	hash := fingerprint.ContentHash(c)
	now := s.Now()

	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	var res UpsertResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.GetListingByDedupKey(ctx, tx, key)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return s.insert(ctx, tx, c, key, hash, now, &res)
		case err != nil:
			return err
		}
		return s.merge(ctx, tx, existing, c, hash, now, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ListingStore) insert(ctx context.Context, tx *gorm.DB, c *domain.Candidate, key, hash string, now time.Time, res *UpsertResult) error {
	l := &domain.Listing{
		StableID:     uuid.NewString(),
		ProviderName: c.ProviderName,
		SourceID:     c.SourceID,
		Title:        c.Title,
		Price:        c.Price,
		Currency:     c.Currency,
		AreaSqm:      c.AreaSqm,
		Rooms:        c.Rooms,
		District:     c.District,
		Address:      c.Address,
		Lat:          c.Lat,
		Lon:          c.Lon,
		URL:          c.URL,
		Status:       domain.StatusActive,
		ContentHash:  hash,
		DedupKey:     key,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	if err := repo.CreateListing(ctx, tx, l); err != nil {
		return err
	}
	if err := repo.UpsertAlias(ctx, tx, l.StableID, c.ProviderName, c.SourceID, c.URL); err != nil {
		return err
	}
	if c.Price != nil {
		if err := repo.AppendPriceEntry(ctx, tx, l.StableID, *c.Price, now); err != nil {
			return err
		}
	}
	res.StableID = l.StableID
	res.Action = ActionInserted
	return nil
}

func (s *ListingStore) merge(ctx context.Context, tx *gorm.DB, l *domain.Listing, c *domain.Candidate, hash string, now time.Time, res *UpsertResult) error {
	// A source record may not hop between canonical listings: that would
	// mean the fingerprint of an already-known (provider, source id) moved
	// onto someone else's identity.
	alias, err := repo.GetAlias(ctx, tx, c.ProviderName, c.SourceID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if alias != nil && alias.ListingID != l.StableID {
		return ErrConsistency
	}

	res.StableID = l.StableID
	res.Action = ActionUnchanged

	if l.ContentHash != hash {
		s.mergeFields(l, c)
		l.ContentHash = hash
		res.Action = ActionUpdated
	}
	if l.Status == domain.StatusRetired {
		// The listing reappeared in a feed.
		l.Status = domain.StatusActive
		l.MissedCycles = 0
		res.Action = ActionUpdated
	}
	l.LastSeenAt = now

	if err := repo.SaveListing(ctx, tx, l); err != nil {
		return err
	}
	if err := repo.UpsertAlias(ctx, tx, l.StableID, c.ProviderName, c.SourceID, c.URL); err != nil {
		return err
	}
	return s.trackPrice(ctx, tx, l, now)
}

// mergeFields folds candidate values into the canonical listing. Under the
// completeness policy the record with more populated attributes is primary:
// an at-least-as-complete candidate overrides the stored values (it is the
// fresher observation of the same record; stored values survive in its
// gaps), while a strictly less complete one only fills gaps, so a sparse
// re-listing never degrades an established record. With the policy off, the
// candidate is authoritative including its gaps.
func (s *ListingStore) mergeFields(l *domain.Listing, c *domain.Candidate) {
	if !s.PreferComplete {
		l.Title = c.Title
		l.Currency = c.Currency
		l.District = c.District
		l.Address = c.Address
		l.URL = c.URL
		l.Price = c.Price
		l.AreaSqm = c.AreaSqm
		l.Rooms = c.Rooms
		l.Lat = c.Lat
		l.Lon = c.Lon
		return
	}
	if c.Completeness() >= l.Completeness() {
		s.applyIncoming(l, c)
		return
	}
	s.fillGaps(l, c)
}

// applyIncoming makes the candidate the primary record: every populated
// candidate field overrides, stored values survive only in its gaps.
func (s *ListingStore) applyIncoming(l *domain.Listing, c *domain.Candidate) {
	if c.Title != "" {
		l.Title = c.Title
	}
	if c.Currency != "" {
		l.Currency = c.Currency
	}
	if c.District != "" {
		l.District = c.District
	}
	if c.Address != "" {
		l.Address = c.Address
	}
	if c.URL != "" {
		l.URL = c.URL
	}
	if c.Price != nil {
		l.Price = c.Price
	}
	if c.AreaSqm != nil {
		l.AreaSqm = c.AreaSqm
	}
	if c.Rooms != nil {
		l.Rooms = c.Rooms
	}
	if c.Lat != nil {
		l.Lat = c.Lat
	}
	if c.Lon != nil {
		l.Lon = c.Lon
	}
}

// fillGaps keeps the stored record primary: candidate values land only in
// fields the stored record is missing.
func (s *ListingStore) fillGaps(l *domain.Listing, c *domain.Candidate) {
	if l.Title == "" {
		l.Title = c.Title
	}
	if l.Currency == "" {
		l.Currency = c.Currency
	}
	if l.District == "" {
		l.District = c.District
	}
	if l.Address == "" {
		l.Address = c.Address
	}
	if l.URL == "" {
		l.URL = c.URL
	}
	if l.Price == nil {
		l.Price = c.Price
	}
	if l.AreaSqm == nil {
		l.AreaSqm = c.AreaSqm
	}
	if l.Rooms == nil {
		l.Rooms = c.Rooms
	}
	if l.Lat == nil {
		l.Lat = c.Lat
	}
	if l.Lon == nil {
		l.Lon = c.Lon
	}
}

// trackPrice appends a price-history point when the current price differs
// from the last recorded one. Unchanged prices produce no history churn.
func (s *ListingStore) trackPrice(ctx context.Context, tx *gorm.DB, l *domain.Listing, now time.Time) error {
	if l.Price == nil {
		return nil
	}
	last, err := repo.LastPriceEntry(ctx, tx, l.StableID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// fall through to append
	case err != nil:
		return err
	case last.Price == *l.Price:
		return nil
	}
	return repo.AppendPriceEntry(ctx, tx, l.StableID, *l.Price, now)
}

// RetireAbsent closes a reload cycle for one provider: every active listing
// of the provider not in seen gets a missed cycle, every seen one has its
// counter reset, and listings at or past the threshold are retired. It
// returns the number of retired listings.
func (s *ListingStore) RetireAbsent(ctx context.Context, provider string, seen []string, threshold int) (int64, error) {
	if threshold <= 0 {
		threshold = 1
	}
	var retired int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkAbsent(ctx, tx, provider, seen); err != nil {
			return err
		}
		n, err := repo.RetireReached(ctx, tx, provider, threshold)
		retired = n
		return err
	})
	return retired, err
}

// Get fetches one listing by stable id.
func (s *ListingStore) Get(ctx context.Context, stableID string) (*domain.Listing, error) {
	l, err := repo.GetListing(ctx, s.DB, stableID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrListingNotFound
	}
	return l, err
}

// PriceHistory returns the full observed price trail of a listing, oldest
// first. The listing must exist; its history may legitimately be empty.
func (s *ListingStore) PriceHistory(ctx context.Context, stableID string) ([]domain.PriceEntry, error) {
	if _, err := s.Get(ctx, stableID); err != nil {
		return nil, err
	}
	return repo.ListPriceHistory(ctx, s.DB, stableID)
}

// Aliases returns the provider cross-references recorded for a listing.
func (s *ListingStore) Aliases(ctx context.Context, stableID string) ([]domain.ListingAlias, error) {
	return repo.ListAliases(ctx, s.DB, stableID)
}
