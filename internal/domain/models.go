// Package domain defines the persistence models for canonical listings,
// their price history, cross-provider aliases, and per-provider feed state.
// These types are mapped with GORM and form the core data layer of the
// listing engine.
package domain

import (
	"time"
)

// Listing status values.
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

// Provider reload status values. ReloadBusy never reaches the feed state
// table: it only marks a fan-out slot whose previous cycle was still running,
// and a rejected trigger is not an outcome of the cycle itself.
const (
	ReloadSuccess = "success"
	ReloadPartial = "partial"
	ReloadFailed  = "failed"
	ReloadBusy    = "busy"
)

// Listing is the canonical, provider-agnostic representation of one
// real-estate ad. Every feed format is normalized into this shape.
//
// Identity model:
//   - StableID: engine-assigned UUID, immutable once assigned. It survives
//     provider-id churn and identifies one real-world listing across reloads
//     and across providers.
//   - SourceID: the provider's native id; may be absent or unstable and is
//     never used as a primary key.
//   - DedupKey: approximate-match key (normalized address + rounded area +
//     price band) used to merge candidates from different providers.
//   - ContentHash: change-detection digest over identity-relevant fields;
//     excludes history/timestamp bookkeeping.
//
// Retirement is counter-based: MissedCycles tracks consecutive reload cycles
// in which the listing was absent from its provider's feed; once the
// configured threshold is reached the listing transitions to retired. Rows
// are never physically deleted (price history is retained for analytics),
// retired rows are simply excluded from default search results.
type Listing struct {
	StableID     string    `json:"stable_id"     gorm:"type:char(36);primaryKey"`
	ProviderName string    `json:"provider"      gorm:"type:varchar(64);not null;index:idx_listing_provider"`
	SourceID     string    `json:"source_id"     gorm:"type:varchar(128)"`
	Title        string    `json:"title"         gorm:"type:varchar(512)"`
	Price        *int64    `json:"price"         gorm:"index:idx_listing_price"` // minor currency units
	Currency     string    `json:"currency"      gorm:"type:char(3)"`
	AreaSqm      *float64  `json:"area_sqm"      gorm:"index:idx_listing_area"`
	Rooms        *int      `json:"rooms"         gorm:"index:idx_listing_rooms"`
	District     string    `json:"district"      gorm:"type:varchar(128);index:idx_listing_district"`
	Address      string    `json:"address"       gorm:"type:varchar(512);index:idx_listing_address"` // normalized
	Lat          *float64  `json:"lat,omitempty"`
	Lon          *float64  `json:"lon,omitempty"`
	URL          string    `json:"url"           gorm:"type:varchar(1024)"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;default:'active';index:idx_listing_status;check:status IN ('active','retired')"`
	ContentHash  string    `json:"content_hash"  gorm:"type:varchar(32);not null"`
	DedupKey     string    `json:"-"             gorm:"type:varchar(64);not null;uniqueIndex:ux_listing_dedup"`
	MissedCycles int       `json:"-"             gorm:"not null;default:0"`
	FirstSeenAt  time.Time `json:"first_seen_at" gorm:"not null"`
	LastSeenAt   time.Time `json:"last_seen_at"  gorm:"not null;index:idx_listing_last_seen"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`

	// PriceHistory is the append-only sequence of observed price points,
	// ordered by ObservedAt. Loaded on demand, not on every query.
	PriceHistory []PriceEntry `json:"price_history,omitempty" gorm:"foreignKey:ListingID;references:StableID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Listing.
func (Listing) TableName() string { return "listings" }

// Completeness counts the non-empty attributes of a listing. It is the basis
// for the merge policy: when two candidates share a dedup key the one with
// more populated fields wins as the primary record.
func (l *Listing) Completeness() int {
	n := 0
	if l.SourceID != "" {
		n++
	}
	if l.Title != "" {
		n++
	}
	if l.Price != nil {
		n++
	}
	if l.Currency != "" {
		n++
	}
	if l.AreaSqm != nil {
		n++
	}
	if l.Rooms != nil {
		n++
	}
	if l.District != "" {
		n++
	}
	if l.Address != "" {
		n++
	}
	if l.Lat != nil && l.Lon != nil {
		n++
	}
	if l.URL != "" {
		n++
	}
	return n
}

// PriceEntry is one observed price point for a listing. Entries are
// append-only and ordered by ObservedAt; a new entry is written only when the
// observed price differs from the most recent one.
type PriceEntry struct {
	ID         string    `json:"-"           gorm:"type:char(36);primaryKey"`
	ListingID  string    `json:"-"           gorm:"type:char(36);not null;index:idx_price_listing,priority:1"`
	Price      int64     `json:"price"`
	ObservedAt time.Time `json:"observed_at" gorm:"not null;index:idx_price_listing,priority:2"`
}

// TableName returns the database table name for PriceEntry.
func (PriceEntry) TableName() string { return "price_entries" }

// ListingAlias cross-references a merged duplicate: when two candidates from
// different providers resolve to the same stable id, the non-primary one is
// retained here (provider + native id + url) instead of getting its own row.
// The unique index also absorbs provider-id churn within a single provider.
type ListingAlias struct {
	ID           string    `json:"-"         gorm:"type:char(36);primaryKey"`
	ListingID    string    `json:"-"         gorm:"type:char(36);not null;index"`
	ProviderName string    `json:"provider"  gorm:"type:varchar(64);not null;uniqueIndex:ux_alias_provider_source,priority:1"`
	SourceID     string    `json:"source_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_alias_provider_source,priority:2"`
	URL          string    `json:"url"       gorm:"type:varchar(1024)"`
	CreatedAt    time.Time `json:"-"`

	Listing Listing `json:"-" gorm:"foreignKey:ListingID;references:StableID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ListingAlias.
func (ListingAlias) TableName() string { return "listing_aliases" }

// ProviderFeedState records the outcome of the most recent reload cycle for
// one provider. The in-flight guard is deliberately not part of this model:
// it is in-memory state owned exclusively by the reload orchestrator.
type ProviderFeedState struct {
	ProviderName        string     `json:"provider"             gorm:"type:varchar(64);primaryKey"`
	LastReloadAt        *time.Time `json:"last_reload_at"`
	LastReloadStatus    string     `json:"last_reload_status"   gorm:"type:varchar(16)"`
	ConsecutiveFailures int        `json:"consecutive_failures" gorm:"not null;default:0"`
	UpdatedAt           time.Time  `json:"-"`
}

// TableName returns the database table name for ProviderFeedState.
func (ProviderFeedState) TableName() string { return "provider_feed_states" }

// Candidate is a partially populated listing produced by the feed parser:
// only fields derivable from the raw record are set. StableID, FirstSeenAt
// and price history are assigned later by the store during upsert.
type Candidate struct {
	ProviderName string
	SourceID     string
	Title        string
	Price        *int64
	Currency     string
	AreaSqm      *float64
	Rooms        *int
	District     string
	Address      string
	Lat          *float64
	Lon          *float64
	URL          string
}

// Completeness mirrors Listing.Completeness for parse-stage candidates.
func (c *Candidate) Completeness() int {
	return (&Listing{
		SourceID: c.SourceID,
		Title:    c.Title,
		Price:    c.Price,
		Currency: c.Currency,
		AreaSqm:  c.AreaSqm,
		Rooms:    c.Rooms,
		District: c.District,
		Address:  c.Address,
		Lat:      c.Lat,
		Lon:      c.Lon,
		URL:      c.URL,
	}).Completeness()
}
