package repositories

import (
	"context"
	"testing"

	"github.com/desertthunder/trackx/internal/resolver"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
)

func newTestCache(t *testing.T) *ResolutionCache {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := NewResolutionCache(db)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return cache
}

func TestResolutionCache_RoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	stored := resolver.Result{
		Platform:   services.PlatformSpotify,
		Tier:       resolver.TierHard,
		ID:         "0VjIjW4GlUZAMYd2vXMi3b",
		Confidence: 0.85,
		Candidate: &services.Candidate{
			Platform: services.PlatformSpotify,
			ID:       "0VjIjW4GlUZAMYd2vXMi3b",
			Artist:   "The Weeknd",
			Title:    "Blinding Lights",
		},
	}
	if err := cache.Store(ctx, services.PlatformSpotify, "The Weeknd", "Blinding Lights", stored); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := cache.Lookup(ctx, services.PlatformSpotify, "The Weeknd", "Blinding Lights")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Tier != resolver.TierHard || got.ID != stored.ID || got.Confidence != stored.Confidence {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Candidate == nil || got.Candidate.Title != "Blinding Lights" {
		t.Errorf("candidate did not survive the round trip: %+v", got.Candidate)
	}
}

func TestResolutionCache_NormalizedKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	res := resolver.Result{Platform: services.PlatformApple, Tier: resolver.TierSoft, ID: "123", Confidence: 0.7}
	if err := cache.Store(ctx, services.PlatformApple, "Beyoncé", "Déjà Vu", res); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// Different casing and stripped diacritics hit the same row.
	got, err := cache.Lookup(ctx, services.PlatformApple, "beyonce", "DEJA VU")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.ID != "123" {
		t.Errorf("expected a hit via normalized keys, got %+v", got)
	}
}

func TestResolutionCache_MissReturnsNil(t *testing.T) {
	cache := newTestCache(t)

	got, err := cache.Lookup(context.Background(), services.PlatformSpotify, "Unknown", "Track")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected a miss, got %+v", got)
	}
}

func TestResolutionCache_PlatformsAreIsolated(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	res := resolver.Result{Platform: services.PlatformSpotify, Tier: resolver.TierHard, ID: "abc", Confidence: 0.9}
	if err := cache.Store(ctx, services.PlatformSpotify, "The Weeknd", "Blinding Lights", res); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := cache.Lookup(ctx, services.PlatformApple, "The Weeknd", "Blinding Lights")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != nil {
		t.Errorf("a resolution must not leak across platforms, got %+v", got)
	}
}

func TestResolutionCache_StoreReplaces(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	first := resolver.Result{Platform: services.PlatformSpotify, Tier: resolver.TierSoft, ID: "old", Confidence: 0.6}
	second := resolver.Result{Platform: services.PlatformSpotify, Tier: resolver.TierHard, ID: "new", Confidence: 0.95}

	for _, res := range []resolver.Result{first, second} {
		if err := cache.Store(ctx, services.PlatformSpotify, "The Weeknd", "Blinding Lights", res); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	got, err := cache.Lookup(ctx, services.PlatformSpotify, "The Weeknd", "Blinding Lights")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.ID != "new" || got.Tier != resolver.TierHard {
		t.Errorf("expected the later store to win, got %+v", got)
	}
}

func TestResolutionCache_StatsAndClear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	entries := []struct {
		platform services.Platform
		title    string
	}{
		{services.PlatformSpotify, "One"},
		{services.PlatformSpotify, "Two"},
		{services.PlatformApple, "Three"},
	}
	for _, e := range entries {
		res := resolver.Result{Platform: e.platform, Tier: resolver.TierHard, ID: "x", Confidence: 0.8}
		if err := cache.Store(ctx, e.platform, "Artist", e.title, res); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats[services.PlatformSpotify] != 2 || stats[services.PlatformApple] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 rows removed, got %d", removed)
	}

	stats, err = cache.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected an empty cache after clear, got %+v", stats)
	}
}
