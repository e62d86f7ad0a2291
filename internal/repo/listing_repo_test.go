package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/homefeed/go-listing-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("listing_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }

func seedListing(t *testing.T, db *gorm.DB, id, provider, dedup string, price int64, lastSeen time.Time) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		StableID:     id,
		ProviderName: provider,
		Title:        "flat " + id,
		Price:        i64(price),
		Currency:     "EUR",
		AreaSqm:      f64(50),
		Rooms:        iptr(2),
		District:     "Centrum",
		Address:      "zelazna street 10",
		Status:       domain.StatusActive,
		ContentHash:  "hash-" + id,
		DedupKey:     dedup,
		FirstSeenAt:  lastSeen,
		LastSeenAt:   lastSeen,
	}
	if err := CreateListing(context.Background(), db, l); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return l
}

func TestGetListing_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetListing(context.Background(), db, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAndGetByDedupKey(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedListing(t, db, "s1", "acme", "dk1", 100, now)

	got, err := GetListingByDedupKey(context.Background(), db, "dk1")
	if err != nil {
		t.Fatalf("GetListingByDedupKey: %v", err)
	}
	if got.StableID != "s1" || got.ProviderName != "acme" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if _, err := GetListingByDedupKey(context.Background(), db, "dk-other"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unseen key, got %v", err)
	}
}

func TestSaveListing_PersistsNulledFields(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := seedListing(t, db, "s1", "acme", "dk1", 100, now)

	l.Rooms = nil
	l.Title = "renamed"
	if err := SaveListing(context.Background(), db, l); err != nil {
		t.Fatalf("SaveListing: %v", err)
	}

	got, err := GetListing(context.Background(), db, "s1")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if got.Title != "renamed" {
		t.Fatalf("title not updated: %+v", got)
	}
	if got.Rooms != nil {
		t.Fatalf("nulled rooms not persisted: %v", *got.Rooms)
	}
}

func TestMarkAbsentAndRetireReached(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedListing(t, db, "x", "acme", "dkx", 100, now)
	seedListing(t, db, "y", "acme", "dky", 100, now)
	seedListing(t, db, "z", "other", "dkz", 100, now)

	// Cycle saw only x: y gets a missed cycle, z (other provider) untouched.
	if err := MarkAbsent(ctx, db, "acme", []string{"x"}); err != nil {
		t.Fatalf("MarkAbsent: %v", err)
	}
	retired, err := RetireReached(ctx, db, "acme", 2)
	if err != nil || retired != 0 {
		t.Fatalf("threshold 2 should not retire after one miss: n=%d err=%v", retired, err)
	}

	// Second miss crosses the threshold.
	if err := MarkAbsent(ctx, db, "acme", []string{"x"}); err != nil {
		t.Fatalf("MarkAbsent: %v", err)
	}
	retired, err = RetireReached(ctx, db, "acme", 2)
	if err != nil || retired != 1 {
		t.Fatalf("expected 1 retirement, n=%d err=%v", retired, err)
	}

	y, _ := GetListing(ctx, db, "y")
	if y.Status != domain.StatusRetired {
		t.Fatalf("y not retired: %+v", y)
	}
	x, _ := GetListing(ctx, db, "x")
	if x.Status != domain.StatusActive || x.MissedCycles != 0 {
		t.Fatalf("x should stay active with zero misses: %+v", x)
	}
	z, _ := GetListing(ctx, db, "z")
	if z.Status != domain.StatusActive || z.MissedCycles != 0 {
		t.Fatalf("other provider affected: %+v", z)
	}
}

func TestMarkAbsent_SightResetsCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedListing(t, db, "y", "acme", "dky", 100, now)

	if err := MarkAbsent(ctx, db, "acme", []string{"x"}); err != nil {
		t.Fatalf("MarkAbsent: %v", err)
	}
	y, _ := GetListing(ctx, db, "y")
	if y.MissedCycles != 1 {
		t.Fatalf("missed_cycles = %d; want 1", y.MissedCycles)
	}

	// Seen again: counter resets, no retirement with threshold 2.
	if err := MarkAbsent(ctx, db, "acme", []string{"y"}); err != nil {
		t.Fatalf("MarkAbsent: %v", err)
	}
	y, _ = GetListing(ctx, db, "y")
	if y.MissedCycles != 0 {
		t.Fatalf("missed_cycles = %d; want 0 after sight", y.MissedCycles)
	}
}

func TestMarkAbsent_SeenSetLargerThanBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Shrink the batch so a handful of rows exercises the batching paths.
	orig := markAbsentBatch
	markAbsentBatch = 2
	t.Cleanup(func() { markAbsentBatch = orig })

	for i := 0; i < 7; i++ {
		seedListing(t, db, fmt.Sprintf("m%d", i), "acme", fmt.Sprintf("dkm%d", i), 100, now)
	}
	// m2 was missed before and is seen again this cycle: counter must reset.
	if err := db.Model(&domain.Listing{}).Where("stable_id = ?", "m2").
		UpdateColumn("missed_cycles", 1).Error; err != nil {
		t.Fatalf("preset missed_cycles: %v", err)
	}

	seen := []string{"m0", "m2", "m4", "m6", "ghost"} // 5 ids > batch of 2
	if err := MarkAbsent(ctx, db, "acme", seen); err != nil {
		t.Fatalf("MarkAbsent: %v", err)
	}

	for _, id := range []string{"m1", "m3", "m5"} {
		l, _ := GetListing(ctx, db, id)
		if l.MissedCycles != 1 {
			t.Fatalf("%s missed_cycles = %d; want 1", id, l.MissedCycles)
		}
	}
	for _, id := range []string{"m0", "m2", "m4", "m6"} {
		l, _ := GetListing(ctx, db, id)
		if l.MissedCycles != 0 {
			t.Fatalf("%s missed_cycles = %d; want 0", id, l.MissedCycles)
		}
	}
}

func TestSearchListings_FiltersAndDeterministicOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := seedListing(t, db, "a", "acme", "dka", 300, base.Add(1*time.Hour))
	b := seedListing(t, db, "b", "acme", "dkb", 100, base.Add(2*time.Hour))
	c := seedListing(t, db, "c", "beta", "dkc", 200, base.Add(3*time.Hour))
	_ = a
	_ = b

	// Same LastSeenAt as c: ordering must fall back to stable_id.
	d := seedListing(t, db, "d", "beta", "dkd", 200, base.Add(3*time.Hour))
	_ = c
	_ = d

	out, total, err := SearchListings(ctx, db, ListingFilter{Status: domain.StatusActive}, SortLastSeen, 0, 10)
	if err != nil {
		t.Fatalf("SearchListings: %v", err)
	}
	if total != 4 || len(out) != 4 {
		t.Fatalf("total=%d len=%d; want 4/4", total, len(out))
	}
	gotOrder := []string{out[0].StableID, out[1].StableID, out[2].StableID, out[3].StableID}
	wantOrder := []string{"c", "d", "b", "a"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v; want %v", gotOrder, wantOrder)
		}
	}

	// Identical query returns identical ordering.
	again, _, err := SearchListings(ctx, db, ListingFilter{Status: domain.StatusActive}, SortLastSeen, 0, 10)
	if err != nil {
		t.Fatalf("SearchListings: %v", err)
	}
	for i := range again {
		if again[i].StableID != out[i].StableID {
			t.Fatal("repeat query returned different order")
		}
	}

	// Price filter + price sort.
	out, total, err = SearchListings(ctx, db,
		ListingFilter{Status: domain.StatusActive, MinPrice: i64(150)}, SortPriceAsc, 0, 10)
	if err != nil || total != 3 {
		t.Fatalf("price filter: total=%d err=%v", total, err)
	}
	if out[0].StableID != "c" && out[0].StableID != "d" {
		t.Fatalf("cheapest first expected, got %v", out[0].StableID)
	}

	// Provider set + district case-insensitive.
	out, total, err = SearchListings(ctx, db,
		ListingFilter{Status: domain.StatusActive, Providers: []string{"beta"}, Districts: []string{"CENTRUM"}},
		SortLastSeen, 0, 10)
	if err != nil || total != 2 {
		t.Fatalf("provider+district filter: total=%d err=%v", total, err)
	}
	_ = out

	// Zero matches is a success, not an error.
	out, total, err = SearchListings(ctx, db,
		ListingFilter{Status: domain.StatusActive, Districts: []string{"nowhere"}}, SortLastSeen, 0, 10)
	if err != nil || total != 0 || len(out) != 0 {
		t.Fatalf("empty result mishandled: total=%d len=%d err=%v", total, len(out), err)
	}
}

func TestSearchListings_Pagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedListing(t, db, fmt.Sprintf("p%d", i), "acme", fmt.Sprintf("dk%d", i), int64(100+i), base)
	}

	page1, total, err := SearchListings(ctx, db, ListingFilter{}, SortLastSeen, 0, 2)
	if err != nil || total != 5 || len(page1) != 2 {
		t.Fatalf("page1: total=%d len=%d err=%v", total, len(page1), err)
	}
	page2, _, err := SearchListings(ctx, db, ListingFilter{}, SortLastSeen, 2, 2)
	if err != nil || len(page2) != 2 {
		t.Fatalf("page2: len=%d err=%v", len(page2), err)
	}
	if page1[0].StableID == page2[0].StableID {
		t.Fatal("pages overlap")
	}
}

func TestPriceHistory_AppendAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedListing(t, db, "s1", "acme", "dk1", 100, now)

	if _, err := LastPriceEntry(ctx, db, "s1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound with empty history, got %v", err)
	}

	if err := AppendPriceEntry(ctx, db, "s1", 100, now); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendPriceEntry(ctx, db, "s1", 90, now.Add(time.Hour)); err != nil {
		t.Fatalf("append: %v", err)
	}

	last, err := LastPriceEntry(ctx, db, "s1")
	if err != nil || last.Price != 90 {
		t.Fatalf("last = %+v err=%v; want price 90", last, err)
	}

	hist, err := ListPriceHistory(ctx, db, "s1")
	if err != nil || len(hist) != 2 {
		t.Fatalf("history len=%d err=%v", len(hist), err)
	}
	if hist[0].Price != 100 || hist[1].Price != 90 {
		t.Fatalf("history out of order: %+v", hist)
	}
}

func TestUpsertAlias_IdempotentAndSkipsEmptySource(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedListing(t, db, "s1", "acme", "dk1", 100, now)

	if err := UpsertAlias(ctx, db, "s1", "beta", "b-9", "https://beta.example/b-9"); err != nil {
		t.Fatalf("UpsertAlias: %v", err)
	}
	if err := UpsertAlias(ctx, db, "s1", "beta", "b-9", "https://beta.example/b-9"); err != nil {
		t.Fatalf("repeat UpsertAlias: %v", err)
	}
	if err := UpsertAlias(ctx, db, "s1", "beta", "", "x"); err != nil {
		t.Fatalf("empty source id should be a no-op: %v", err)
	}

	aliases, err := ListAliases(ctx, db, "s1")
	if err != nil || len(aliases) != 1 {
		t.Fatalf("aliases len=%d err=%v; want 1", len(aliases), err)
	}
}
