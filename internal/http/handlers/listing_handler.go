// Listing HTTP handlers.
//
// This file exposes REST endpoints for the listing catalog:
//   - GET /listings              (search, paginated, deterministic order)
//   - GET /listings/{id}         (detail with provider cross-references)
//   - GET /listings/{id}/prices  (observed price history)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/repo"
	"github.com/homefeed/go-listing-backend/internal/services"
	"github.com/homefeed/go-listing-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SearchService defines the catalog read operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SearchService interface {
	// Search returns one page of listings and the total match count.
	Search(ctx context.Context, f repo.ListingFilter, sort repo.SortKey, page, pageSize int) ([]domain.Listing, int64, error)
}

// ListingStore defines the single-listing read operations consumed by HTTP
// handlers.
type ListingStore interface {
	// Get fetches one listing by its stable id.
	Get(ctx context.Context, stableID string) (*domain.Listing, error)
	// PriceHistory returns the observed price trail, oldest first.
	PriceHistory(ctx context.Context, stableID string) ([]domain.PriceEntry, error)
	// Aliases returns the provider cross-references of a listing.
	Aliases(ctx context.Context, stableID string) ([]domain.ListingAlias, error)
}

// ReloadService defines the ingestion trigger operations consumed by HTTP
// handlers.
type ReloadService interface {
	// Reload runs one full cycle for the named provider.
	Reload(ctx context.Context, name string) (*services.ReloadResult, error)
	// ReloadAll runs a cycle for every configured provider.
	ReloadAll(ctx context.Context) ([]services.ReloadResult, error)
}

// ProviderService defines the provider status operations consumed by HTTP
// handlers.
type ProviderService interface {
	// Status returns the health view of one configured provider.
	Status(ctx context.Context, name string) (*services.ProviderStatus, error)
	// List returns the health view of every configured provider.
	List(ctx context.Context) ([]services.ProviderStatus, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for listings, reloads, and providers.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	searchSvc   SearchService
	store       ListingStore
	reloadSvc   ReloadService
	providerSvc ProviderService

	// MaxPageSize caps the page_size query parameter.
	MaxPageSize int
	// IdempotencyTTL is how long a stored Idempotency-Key remains valid.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(searchSvc SearchService, store ListingStore, reloadSvc ReloadService, providerSvc ProviderService) *Handlers {
	return &Handlers{
		searchSvc:      searchSvc,
		store:          store,
		reloadSvc:      reloadSvc,
		providerSvc:    providerSvc,
		MaxPageSize:    100,
		IdempotencyTTL: 24 * time.Hour,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// SearchListingsResponse wraps a page of listings and pagination information.
type SearchListingsResponse struct {
	Listings   []domain.Listing `json:"listings"`
	Pagination Pagination       `json:"pagination"`
}

// ListingDetailResponse is one listing plus its provider cross-references.
type ListingDetailResponse struct {
	Listing *domain.Listing       `json:"listing"`
	Aliases []domain.ListingAlias `json:"aliases"`
}

// PriceHistoryResponse is the observed price trail of one listing.
type PriceHistoryResponse struct {
	StableID string              `json:"stable_id"`
	Prices   []domain.PriceEntry `json:"prices"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func (h *Handlers) clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if max := h.MaxPageSize; max > 0 && pageSize > max {
		pageSize = max
	}
	return
}

// validSortKeys is the accepted value set of the sort query parameter.
var validSortKeys = map[repo.SortKey]bool{
	repo.SortLastSeen:  true,
	repo.SortPriceAsc:  true,
	repo.SortPriceDesc: true,
	repo.SortPpsqmAsc:  true,
	repo.SortPpsqmDesc: true,
}

// parseFilter builds the repository filter from query parameters. Prices in
// the query are whole currency units and converted to minor units here.
func parseFilter(c *gin.Context) (repo.ListingFilter, error) {
	var f repo.ListingFilter

	if v := strings.TrimSpace(c.Query("min_price")); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return f, errors.New("min_price must be a non-negative number")
		}
		minor := int64(math.Round(p * 100))
		f.MinPrice = &minor
	}
	if v := strings.TrimSpace(c.Query("max_price")); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return f, errors.New("max_price must be a non-negative number")
		}
		minor := int64(math.Round(p * 100))
		f.MaxPrice = &minor
	}
	if v := strings.TrimSpace(c.Query("min_area")); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || a < 0 {
			return f, errors.New("min_area must be a non-negative number")
		}
		f.MinArea = &a
	}
	if v := strings.TrimSpace(c.Query("max_area")); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || a < 0 {
			return f, errors.New("max_area must be a non-negative number")
		}
		f.MaxArea = &a
	}
	for _, r := range splitCSVQuery(c.Query("rooms")) {
		n, err := strconv.Atoi(r)
		if err != nil || n < 0 {
			return f, errors.New("rooms must be a list of non-negative integers")
		}
		f.Rooms = append(f.Rooms, n)
	}
	f.Districts = splitCSVQuery(c.Query("district"))
	f.Providers = splitCSVQuery(c.Query("provider"))

	switch status := strings.ToLower(strings.TrimSpace(c.Query("status"))); status {
	case "", domain.StatusActive, domain.StatusRetired, services.StatusAny:
		f.Status = status
	default:
		return f, errors.New("status must be active, retired or any")
	}
	return f, nil
}

func splitCSVQuery(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

//
// Handlers
//

// SearchListings godoc
// @ID          searchListings
// @Summary     Search listings (paginated)
// @Description Returns a page of listings matching the filters. Results are deterministically ordered; identical queries return identical pages.
// @Tags        Listings
// @Produce     json
//
// @Param       min_price  query  number  false "Minimum price (whole currency units)"  minimum(0)
// @Param       max_price  query  number  false "Maximum price (whole currency units)"  minimum(0)
// @Param       min_area   query  number  false "Minimum area in m²"                    minimum(0)
// @Param       max_area   query  number  false "Maximum area in m²"                    minimum(0)
// @Param       rooms      query  string  false "Room counts (CSV)"                     example(2,3)
// @Param       district   query  string  false "Districts (CSV, case-insensitive)"     example(Wola,Mokotów)
// @Param       provider   query  string  false "Providers (CSV)"                       example(acme)
// @Param       status     query  string  false "Listing status"                        Enums(active, retired, any) default(active)
// @Param       sort       query  string  false "Sort order"                            Enums(last_seen, price_asc, price_desc, ppsqm_asc, ppsqm_desc) default(last_seen)
// @Param       page       query  int     false "Page number"                           minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"                        minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.SearchListingsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /listings [get]
func (h *Handlers) SearchListings(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	sort := repo.SortKey(strings.TrimSpace(c.DefaultQuery("sort", string(repo.SortLastSeen))))
	if !validSortKeys[sort] {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown sort key")
		return
	}
	page, pageSize := h.clampPagination(c)

	items, total, err := h.searchSvc.Search(c.Request.Context(), filter, sort, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, SearchListingsResponse{
		Listings: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetListing godoc
// @ID          getListing
// @Summary     Get one listing
// @Description Returns a listing by stable id, including its provider cross-references.
// @Tags        Listings
// @Produce     json
//
// @Param       id  path  string  true "Listing stable id (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ListingDetailResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /listings/{id} [get]
func (h *Handlers) GetListing(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id must be a UUID")
		return
	}

	ctx := c.Request.Context()
	l, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	aliases, err := h.store.Aliases(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListingDetailResponse{Listing: l, Aliases: aliases})
}

// GetPriceHistory godoc
// @ID          getPriceHistory
// @Summary     Get a listing's price history
// @Description Returns every observed price point of a listing, oldest first.
// @Tags        Listings
// @Produce     json
//
// @Param       id  path  string  true "Listing stable id (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.PriceHistoryResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Listing not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /listings/{id}/prices [get]
func (h *Handlers) GetPriceHistory(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id must be a UUID")
		return
	}

	prices, err := h.store.PriceHistory(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "listing not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if prices == nil {
		prices = []domain.PriceEntry{}
	}
	ok(c, http.StatusOK, PriceHistoryResponse{StableID: id, Prices: prices})
}
