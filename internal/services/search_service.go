// Package services – SearchService
//
// This file implements the read side of the listing catalog: filtered,
// paginated, deterministically ordered search. The service applies the scope
// defaults the repository deliberately leaves out: unscoped queries see
// active listings only, and providers whose feed has been failing for too
// many consecutive cycles are excluded until they recover. An explicit
// provider filter overrides the exclusion, so a failing provider's data
// remains reachable on request.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/repo"
)

// StatusAny is the filter value that disables the status constraint.
const StatusAny = "any"

// SearchService provides listing search with catalog-level scope defaults.
type SearchService struct {
	// DB is the GORM handle used for queries.
	DB *gorm.DB

	// FailureThreshold is the consecutive-failure count at which a provider
	// drops out of the default search scope.
	FailureThreshold int

	// MaxPageSize caps the page size a caller may request.
	MaxPageSize int
}

// NewSearchService constructs a SearchService with the given scope settings.
func NewSearchService(db *gorm.DB, failureThreshold, maxPageSize int) *SearchService {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &SearchService{DB: db, FailureThreshold: failureThreshold, MaxPageSize: maxPageSize}
}

// Search returns one page of listings plus the total match count.
// Page numbering is 1-based; invalid page/pageSize values fall back to
// defaults and pageSize is clamped to MaxPageSize.
func (s *SearchService) Search(ctx context.Context, f repo.ListingFilter, sort repo.SortKey, page, pageSize int) ([]domain.Listing, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}

	switch f.Status {
	case "":
		f.Status = domain.StatusActive
	case StatusAny:
		f.Status = ""
	}

	// Degraded providers leave the default scope only: an explicit provider
	// filter is honored as-is.
	if len(f.Providers) == 0 {
		excluded, err := repo.FailedProviderNames(ctx, s.DB, s.FailureThreshold)
		if err != nil {
			return nil, 0, err
		}
		f.ExcludeProviders = excluded
	}

	offset := (page - 1) * pageSize
	return repo.SearchListings(ctx, s.DB, f, sort, offset, pageSize)
}
