package repo

import (
	"context"
	"testing"
	"time"

	"github.com/homefeed/go-listing-backend/internal/domain"
)

func TestRecordReloadOutcome_FailureCounting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	st, err := RecordReloadOutcome(ctx, db, "acme", domain.ReloadFailed, at)
	if err != nil {
		t.Fatalf("RecordReloadOutcome: %v", err)
	}
	if st.ConsecutiveFailures != 1 {
		t.Fatalf("failures = %d; want 1", st.ConsecutiveFailures)
	}

	st, err = RecordReloadOutcome(ctx, db, "acme", domain.ReloadFailed, at.Add(time.Hour))
	if err != nil || st.ConsecutiveFailures != 2 {
		t.Fatalf("failures = %d err=%v; want 2", st.ConsecutiveFailures, err)
	}

	// Partial counts as a working feed: counter resets.
	st, err = RecordReloadOutcome(ctx, db, "acme", domain.ReloadPartial, at.Add(2*time.Hour))
	if err != nil || st.ConsecutiveFailures != 0 {
		t.Fatalf("failures = %d err=%v; want 0 after partial", st.ConsecutiveFailures, err)
	}
	if st.LastReloadStatus != domain.ReloadPartial {
		t.Fatalf("status = %q; want partial", st.LastReloadStatus)
	}
	if st.LastReloadAt == nil || !st.LastReloadAt.Equal(at.Add(2*time.Hour)) {
		t.Fatalf("last reload at not updated: %v", st.LastReloadAt)
	}
}

func TestGetProviderState_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetProviderState(context.Background(), db, "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProviderStates_Ordered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, name := range []string{"zeta", "acme", "beta"} {
		if _, err := RecordReloadOutcome(ctx, db, name, domain.ReloadSuccess, at); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	states, err := ListProviderStates(ctx, db)
	if err != nil || len(states) != 3 {
		t.Fatalf("states len=%d err=%v", len(states), err)
	}
	want := []string{"acme", "beta", "zeta"}
	for i := range want {
		if states[i].ProviderName != want[i] {
			t.Fatalf("order = %v; want %v at %d", states[i].ProviderName, want[i], i)
		}
	}
}

func TestFailedProviderNames(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := RecordReloadOutcome(ctx, db, "broken", domain.ReloadFailed, at); err != nil {
			t.Fatalf("seed broken: %v", err)
		}
	}
	if _, err := RecordReloadOutcome(ctx, db, "flaky", domain.ReloadFailed, at); err != nil {
		t.Fatalf("seed flaky: %v", err)
	}
	if _, err := RecordReloadOutcome(ctx, db, "healthy", domain.ReloadSuccess, at); err != nil {
		t.Fatalf("seed healthy: %v", err)
	}

	names, err := FailedProviderNames(ctx, db, 3)
	if err != nil {
		t.Fatalf("FailedProviderNames: %v", err)
	}
	if len(names) != 1 || names[0] != "broken" {
		t.Fatalf("names = %v; want [broken]", names)
	}

	// Recovery: one success clears the exclusion.
	if _, err := RecordReloadOutcome(ctx, db, "broken", domain.ReloadSuccess, at.Add(time.Hour)); err != nil {
		t.Fatalf("recover broken: %v", err)
	}
	names, err = FailedProviderNames(ctx, db, 3)
	if err != nil || len(names) != 0 {
		t.Fatalf("names = %v err=%v; want empty after recovery", names, err)
	}
}

func TestProviderListingStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seedListing(t, db, "a", "acme", "dka", 100, base)
	l := seedListing(t, db, "b", "acme", "dkb", 100, base.Add(time.Hour))
	seedListing(t, db, "c", "other", "dkc", 100, base)

	l.Status = domain.StatusRetired
	if err := SaveListing(ctx, db, l); err != nil {
		t.Fatalf("retire b: %v", err)
	}

	active, retired, lastSeen, err := ProviderListingStats(ctx, db, "acme")
	if err != nil {
		t.Fatalf("ProviderListingStats: %v", err)
	}
	if active != 1 || retired != 1 {
		t.Fatalf("active=%d retired=%d; want 1/1", active, retired)
	}
	if lastSeen == nil || !lastSeen.Equal(base) {
		t.Fatalf("lastSeen = %v; want %v", lastSeen, base)
	}

	active, retired, lastSeen, err = ProviderListingStats(ctx, db, "ghost")
	if err != nil || active != 0 || retired != 0 || lastSeen != nil {
		t.Fatalf("ghost stats: active=%d retired=%d lastSeen=%v err=%v", active, retired, lastSeen, err)
	}
}

func TestCountListingsByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seedListing(t, db, "a", "acme", "dka", 100, base)
	l := seedListing(t, db, "b", "acme", "dkb", 100, base)
	l.Status = domain.StatusRetired
	if err := SaveListing(ctx, db, l); err != nil {
		t.Fatalf("retire b: %v", err)
	}

	counts, err := CountListingsByStatus(ctx, db)
	if err != nil {
		t.Fatalf("CountListingsByStatus: %v", err)
	}
	if counts[domain.StatusActive] != 1 || counts[domain.StatusRetired] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
