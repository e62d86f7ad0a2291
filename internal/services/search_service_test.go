package services

import (
	"context"
	"testing"
	"time"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/repo"
)

func seedSearchData(t *testing.T, store *ListingStore) (acmeID, betaID string) {
	t.Helper()
	ctx := context.Background()

	a, err := store.Upsert(ctx, candidate("acme", "a-1"))
	if err != nil {
		t.Fatalf("seed acme: %v", err)
	}
	b := candidate("beta", "b-1")
	b.Address = "Marszałkowska 1"
	b.District = "Śródmieście"
	bRes, err := store.Upsert(ctx, b)
	if err != nil {
		t.Fatalf("seed beta: %v", err)
	}
	return a.StableID, bRes.StableID
}

func markProviderFailed(t *testing.T, svc *SearchService, name string, times int) {
	t.Helper()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < times; i++ {
		if _, err := repo.RecordReloadOutcome(context.Background(), svc.DB, name, domain.ReloadFailed, at); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
}

func TestSearch_DefaultScopeIsActive(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	acmeID, _ := seedSearchData(t, store)

	// Retire the acme listing out of band.
	if _, err := store.RetireAbsent(ctx, "acme", nil, 1); err != nil {
		t.Fatalf("retire: %v", err)
	}

	svc := NewSearchService(db, 3, 100)
	out, total, err := svc.Search(ctx, repo.ListingFilter{}, repo.SortLastSeen, 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || out[0].StableID == acmeID {
		t.Fatalf("retired listing in default scope: total=%d out=%+v", total, out)
	}

	// Explicit "any" sees both.
	_, total, err = svc.Search(ctx, repo.ListingFilter{Status: StatusAny}, repo.SortLastSeen, 1, 20)
	if err != nil || total != 2 {
		t.Fatalf("any-status search: total=%d err=%v", total, err)
	}
}

func TestSearch_ExcludesFailingProviders(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	seedSearchData(t, store)

	svc := NewSearchService(db, 3, 100)
	markProviderFailed(t, svc, "beta", 3)

	out, total, err := svc.Search(ctx, repo.ListingFilter{}, repo.SortLastSeen, 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || out[0].ProviderName != "acme" {
		t.Fatalf("failing provider in default scope: total=%d out=%+v", total, out)
	}

	// An explicit provider filter overrides the exclusion.
	out, total, err = svc.Search(ctx,
		repo.ListingFilter{Providers: []string{"beta"}}, repo.SortLastSeen, 1, 20)
	if err != nil || total != 1 || out[0].ProviderName != "beta" {
		t.Fatalf("explicit provider filter broken: total=%d err=%v", total, err)
	}
}

func TestSearch_ClampsPaging(t *testing.T) {
	store, db := newTestStore(t)
	seedSearchData(t, store)

	svc := NewSearchService(db, 3, 1)
	out, total, err := svc.Search(context.Background(), repo.ListingFilter{}, repo.SortLastSeen, 0, 500)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 || len(out) != 1 {
		t.Fatalf("page size not clamped: total=%d len=%d", total, len(out))
	}
}

func TestProviderStatus_MergesConfigAndState(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	seedSearchData(t, store)

	providers := []ProviderSpec{
		{Name: "acme", Format: "json", URL: "https://acme.example/feed.json"},
		{Name: "beta", Format: "xml", URL: "https://beta.example/feed.xml"},
	}
	svc := NewProviderService(db, providers, 3)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := repo.RecordReloadOutcome(ctx, db, "beta", domain.ReloadFailed, at); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	st, err := svc.Status(ctx, "beta")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.ActiveListings != 1 || !st.Excluded || st.ConsecutiveFailures != 3 {
		t.Fatalf("beta status: %+v", st)
	}

	// acme never reloaded: config-only view, not an error.
	st, err = svc.Status(ctx, "acme")
	if err != nil {
		t.Fatalf("Status acme: %v", err)
	}
	if st.LastReloadAt != nil || st.Excluded || st.ActiveListings != 1 {
		t.Fatalf("acme status: %+v", st)
	}

	if _, err := svc.Status(ctx, "ghost"); err != ErrProviderNotFound {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 2 || all[0].Name != "acme" {
		t.Fatalf("List: %+v err=%v", all, err)
	}
}
