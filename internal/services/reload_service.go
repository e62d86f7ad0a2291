// Package services – ReloadService
//
// This file implements the ReloadService, which orchestrates full reload
// cycles: download a provider's feed document, parse it into candidates,
// upsert every candidate through the ListingStore, and finally retire the
// provider's listings that went missing. A cycle that never obtained a
// parsable document performs NO retirement: an unreachable feed must not be
// mistaken for an empty one.
//
// At most one cycle per provider runs at a time (in-memory guard); distinct
// providers reload concurrently up to the configured limit.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/feed"
	"github.com/homefeed/go-listing-backend/internal/repo"
)

// ProviderSpec is one configured upstream feed.
type ProviderSpec struct {
	Name   string
	Format string // feed.FormatXML, feed.FormatJSON or feed.FormatCSV
	URL    string
}

// Fetcher downloads one feed document. Implemented by feed.HTTPFetcher;
// faked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ReloadResult summarizes one completed (or failed) reload cycle.
type ReloadResult struct {
	Provider    string        `json:"provider"`
	Status      string        `json:"status"` // success | partial | failed | busy (fan-out only)
	Inserted    int           `json:"inserted"`
	Updated     int           `json:"updated"`
	Unchanged   int           `json:"unchanged"`
	Retired     int64         `json:"retired"`
	ParseErrors int           `json:"parse_errors"`
	Duration    time.Duration `json:"-"`
	Err         error         `json:"-"`
}

// ReloadService coordinates feed reload cycles across providers.
type ReloadService struct {
	// DB is the GORM handle used for provider state bookkeeping.
	DB *gorm.DB
	// Store is the listing write path every candidate goes through.
	Store *ListingStore
	// Fetcher downloads feed documents.
	Fetcher Fetcher

	// Providers is the configured feed set, keyed by name.
	Providers map[string]ProviderSpec

	// RetireAfterMisses is the consecutive-absence threshold for retirement.
	RetireAfterMisses int
	// Timeout bounds one provider's cycle end to end.
	Timeout time.Duration
	// Concurrency bounds parallel provider cycles in ReloadAll.
	Concurrency int

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewReloadService constructs a ReloadService over the given provider set.
func NewReloadService(db *gorm.DB, store *ListingStore, fetcher Fetcher, providers []ProviderSpec) *ReloadService {
	byName := make(map[string]ProviderSpec, len(providers))
	for _, p := range providers {
		byName[p.Name] = p
	}
	return &ReloadService{
		DB:                db,
		Store:             store,
		Fetcher:           fetcher,
		Providers:         byName,
		RetireAfterMisses: 1,
		Timeout:           2 * time.Minute,
		Concurrency:       4,
		inFlight:          make(map[string]bool),
	}
}

// ProviderNames returns the configured provider names, sorted.
func (s *ReloadService) ProviderNames() []string {
	names := make([]string, 0, len(s.Providers))
	for name := range s.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// acquire marks a provider cycle as running, or reports it already is.
func (s *ReloadService) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[name] {
		return false
	}
	s.inFlight[name] = true
	return true
}

func (s *ReloadService) release(name string) {
	s.mu.Lock()
	delete(s.inFlight, name)
	s.mu.Unlock()
}

// Reload runs one full cycle for the named provider. It returns
// ErrProviderNotFound for unknown names and ErrReloadBusy when the previous
// cycle is still running. Any other error comes with a ReloadResult whose
// Status is failed.
func (s *ReloadService) Reload(ctx context.Context, name string) (*ReloadResult, error) {
	spec, ok := s.Providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	if !s.acquire(name) {
		return nil, ErrReloadBusy
	}
	defer s.release(name)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	res := s.runCycle(ctx, spec)
	res.Duration = time.Since(start)

	s.finishCycle(res)
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

// runCycle is the cycle body: fetch, parse, upsert, retire.
func (s *ReloadService) runCycle(ctx context.Context, spec ProviderSpec) *ReloadResult {
	res := &ReloadResult{Provider: spec.Name, Status: domain.ReloadFailed}

	raw, err := s.Fetcher.Fetch(ctx, spec.URL)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrFetchFailed, err)
		return res
	}

	parsed, err := feed.Parse(spec.Name, spec.Format, raw)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrParseFailed, err)
		return res
	}
	res.ParseErrors = parsed.ErrorCount
	for _, sample := range parsed.Samples {
		log.Warn().Str("provider", spec.Name).Str("record", sample).
			Msg("dropped unparsable feed record")
	}

	seen := make([]string, 0, len(parsed.Candidates))
	for i := range parsed.Candidates {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		up, err := s.Store.Upsert(ctx, &parsed.Candidates[i])
		if err != nil {
			if errors.Is(err, ErrConsistency) {
				// The conflicting record is skipped; the cycle goes on.
				log.Error().Str("provider", spec.Name).
					Str("source_id", parsed.Candidates[i].SourceID).
					Msg("listing identity conflict, record skipped")
				res.ParseErrors++
				continue
			}
			res.Err = err
			return res
		}
		seen = append(seen, up.StableID)
		switch up.Action {
		case ActionInserted:
			res.Inserted++
		case ActionUpdated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}

	// Retirement only runs for a cycle that processed a complete document.
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	retired, err := s.Store.RetireAbsent(ctx, spec.Name, seen, s.RetireAfterMisses)
	if err != nil {
		res.Err = err
		return res
	}
	res.Retired = retired

	if res.ParseErrors > 0 {
		res.Status = domain.ReloadPartial
	} else {
		res.Status = domain.ReloadSuccess
	}
	return res
}

// finishCycle records the outcome row, emits metrics, and logs the summary.
// Bookkeeping failures are logged, never propagated over the cycle result.
func (s *ReloadService) finishCycle(res *ReloadResult) {
	// The cycle's own context may already be canceled; bookkeeping should
	// still land.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := repo.RecordReloadOutcome(ctx, s.DB, res.Provider, res.Status, time.Now().UTC()); err != nil {
		log.Error().Err(err).Str("provider", res.Provider).Msg("failed to record reload outcome")
	}

	reloadCycles.WithLabelValues(res.Provider, res.Status).Inc()
	reloadDuration.WithLabelValues(res.Provider).Observe(res.Duration.Seconds())
	ingestedRecords.WithLabelValues(res.Provider, string(ActionInserted)).Add(float64(res.Inserted))
	ingestedRecords.WithLabelValues(res.Provider, string(ActionUpdated)).Add(float64(res.Updated))
	ingestedRecords.WithLabelValues(res.Provider, string(ActionUnchanged)).Add(float64(res.Unchanged))
	retiredListings.WithLabelValues(res.Provider).Add(float64(res.Retired))
	parseErrors.WithLabelValues(res.Provider).Add(float64(res.ParseErrors))

	if counts, err := repo.CountListingsByStatus(ctx, s.DB); err == nil {
		for status, n := range counts {
			listingsByStatus.WithLabelValues(status).Set(float64(n))
		}
	}

	evt := log.Info()
	if res.Err != nil {
		evt = log.Error().Err(res.Err)
	}
	evt.Str("provider", res.Provider).
		Str("status", res.Status).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int64("retired", res.Retired).
		Int("parse_errors", res.ParseErrors).
		Dur("duration", res.Duration).
		Msg("feed reload cycle finished")
}

// ReloadAll runs a cycle for every configured provider, at most Concurrency
// at a time. Per-provider failures are reported in the results, never by the
// returned error. A provider whose previous cycle is still running is a
// rejected trigger, not a broken feed: its slot carries status busy so the
// aggregate response cannot be mistaken for a failure.
func (s *ReloadService) ReloadAll(ctx context.Context) ([]ReloadResult, error) {
	names := s.ProviderNames()
	results := make([]ReloadResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := s.Reload(gctx, name)
			if res == nil {
				status := domain.ReloadFailed
				if errors.Is(err, ErrReloadBusy) {
					status = domain.ReloadBusy
				}
				res = &ReloadResult{Provider: name, Status: status, Err: err}
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
