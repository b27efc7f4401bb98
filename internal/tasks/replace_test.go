package tasks

import (
	"context"
	"fmt"
	"testing"

	"github.com/desertthunder/trackx/internal/services"
)

// mockSource replays scripted replacement batches, one per attempt.
type mockSource struct {
	batches [][]services.TrackQuery
	errs    []error
	calls   int
}

func (m *mockSource) RequestReplacements(ctx context.Context, count int, failed []services.TrackQuery) ([]services.TrackQuery, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.batches) {
		return m.batches[i], nil
	}
	return nil, nil
}

type mockDeleter struct {
	deleted []string
	err     error
}

func (m *mockDeleter) DeleteTracks(ctx context.Context, ids []string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

func newTestVerifier(adapter *mockAdapter) *Verifier {
	return NewVerifier(VerifierOpts{Cascade: []services.SearchAdapter{adapter}})
}

func TestReplacer_SuccessfulRound(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
		{EntryID: "entry-2", Artist: "Another Ghost", Title: "Missing Song"},
	}
	replacements := []services.TrackQuery{
		{Artist: "The Weeknd", Title: "Blinding Lights"},
		{Artist: "Dua Lipa", Title: "Levitating"},
	}

	adapter := &mockAdapter{platform: services.PlatformApple, matches: matchAll(replacements...)}
	deleter := &mockDeleter{}
	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(adapter),
		Source:   &mockSource{batches: [][]services.TrackQuery{replacements}},
		Deleter:  deleter,
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success || result.UserActionNeeded {
		t.Errorf("expected clean success, got %+v", result)
	}
	if result.Attempts != 1 {
		t.Errorf("expected a single attempt, got %d", result.Attempts)
	}
	if result.ReplacedCount != 2 || len(result.StillFailed) != 0 {
		t.Errorf("expected both tracks replaced, got %+v", result)
	}
	if len(deleter.deleted) != 2 || deleter.deleted[0] != "entry-1" || deleter.deleted[1] != "entry-2" {
		t.Errorf("expected both originals deleted, got %v", deleter.deleted)
	}
}

func TestReplacer_ExhaustsRetries(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
	}

	// The platform never matches anything, so every replacement fails too.
	adapter := &mockAdapter{platform: services.PlatformApple}
	source := &mockSource{batches: [][]services.TrackQuery{
		{{Artist: "Attempt", Title: "One"}},
		{{Artist: "Attempt", Title: "Two"}},
		{{Artist: "Attempt", Title: "Three"}},
	}}
	deleter := &mockDeleter{}
	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(adapter),
		Source:   source,
		Deleter:  deleter,
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", result.Attempts)
	}
	if source.calls != 3 {
		t.Errorf("expected 3 source calls, got %d", source.calls)
	}
	if result.Success {
		t.Error("an exhausted round must not report success")
	}
	if !result.UserActionNeeded {
		t.Error("an exhausted round must request user action")
	}
	if len(result.StillFailed) != 1 || result.StillFailed[0].EntryID != "entry-1" {
		t.Errorf("original failed set must survive intact, got %+v", result.StillFailed)
	}
	if result.ReplacedCount != 0 {
		t.Errorf("expected nothing replaced, got %d", result.ReplacedCount)
	}
	if len(deleter.deleted) != 0 {
		t.Errorf("nothing should be deleted when no replacement verifies, got %v", deleter.deleted)
	}
}

func TestReplacer_PartialReplacement(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
		{EntryID: "entry-2", Artist: "Another Ghost", Title: "Missing Song"},
	}
	good := services.TrackQuery{Artist: "The Weeknd", Title: "Blinding Lights"}
	bad := services.TrackQuery{Artist: "Still Unknown", Title: "Never Found"}

	adapter := &mockAdapter{platform: services.PlatformApple, matches: matchAll(good)}
	source := &mockSource{batches: [][]services.TrackQuery{
		{good, bad},
		{bad},
		{bad},
	}}
	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(adapter),
		Source:   source,
		Deleter:  &mockDeleter{},
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ReplacedCount != 1 || len(result.StillFailed) != 1 {
		t.Fatalf("expected one replaced and one still failed, got %+v", result)
	}
	if result.ReplacedCount != len(failed)-len(result.StillFailed) {
		t.Errorf("replaced count must equal originals minus still failed: %+v", result)
	}
	if result.StillFailed[0].EntryID != "entry-2" {
		t.Errorf("wrong track left in failed set: %+v", result.StillFailed[0])
	}
	if result.Success || !result.UserActionNeeded {
		t.Errorf("a partially failed round must request user action, got %+v", result)
	}
}

func TestReplacer_SourceErrorConsumesAttempt(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
	}
	replacement := services.TrackQuery{Artist: "The Weeknd", Title: "Blinding Lights"}

	adapter := &mockAdapter{platform: services.PlatformApple, matches: matchAll(replacement)}
	source := &mockSource{
		errs:    []error{fmt.Errorf("generator unavailable"), fmt.Errorf("generator unavailable")},
		batches: [][]services.TrackQuery{nil, nil, {replacement}},
	}
	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(adapter),
		Source:   source,
		Deleter:  &mockDeleter{},
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Attempts != 3 {
		t.Errorf("source errors must consume attempts: got %d", result.Attempts)
	}
	if !result.Success || result.ReplacedCount != 1 {
		t.Errorf("expected eventual success, got %+v", result)
	}
}

func TestReplacer_DeleterErrorKeepsOriginals(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
	}
	replacement := services.TrackQuery{Artist: "The Weeknd", Title: "Blinding Lights"}

	adapter := &mockAdapter{platform: services.PlatformApple, matches: matchAll(replacement)}
	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(adapter),
		Source: &mockSource{batches: [][]services.TrackQuery{
			{replacement}, {replacement}, {replacement},
		}},
		Deleter:    &mockDeleter{err: fmt.Errorf("remote rejected delete")},
		MaxRetries: 2,
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success {
		t.Error("a failed deletion must not count as replacement")
	}
	if len(result.StillFailed) != 1 || result.ReplacedCount != 0 {
		t.Errorf("originals must stay in the failed set when deletion fails, got %+v", result)
	}
	if result.Attempts != 2 {
		t.Errorf("deletion failures must consume attempts: got %d", result.Attempts)
	}
}

func TestReplacer_DuplicateGuard(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
	}
	// The generator keeps suggesting the track that already failed.
	rehash := services.TrackQuery{Artist: "Ghost Artist", Title: "Phantom Track"}

	adapter := &mockAdapter{platform: services.PlatformApple, matches: matchAll(rehash)}
	source := &mockSource{batches: [][]services.TrackQuery{{rehash}, {rehash}, {rehash}}}
	r := NewReplacer(ReplacerOpts{
		Verifier:       newTestVerifier(adapter),
		Source:         source,
		Deleter:        &mockDeleter{},
		DuplicateFloor: 0.9,
	})

	result, err := r.Run(context.Background(), failed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success || result.ReplacedCount != 0 {
		t.Errorf("rehashed suggestions must never replace their original, got %+v", result)
	}
	if adapter.top1Calls != 0 || adapter.topNCalls != 0 {
		// Dropped candidates never reach verification.
		t.Errorf("guarded candidates must not be verified: top1=%d topN=%d",
			adapter.top1Calls, adapter.topNCalls)
	}
}

func TestReplacer_CancelledContext(t *testing.T) {
	failed := []services.TrackQuery{
		{EntryID: "entry-1", Artist: "Ghost Artist", Title: "Phantom Track"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReplacer(ReplacerOpts{
		Verifier: newTestVerifier(&mockAdapter{platform: services.PlatformApple}),
		Source:   &mockSource{},
		Deleter:  &mockDeleter{},
	})

	result, err := r.Run(ctx, failed, nil)
	if err == nil {
		t.Fatal("expected a context error")
	}
	if result.ReplacedCount != 0 || len(result.StillFailed) != 1 {
		t.Errorf("a cancelled run must hand the failed set back, got %+v", result)
	}
}

func TestReplaceStateString(t *testing.T) {
	states := map[ReplaceState]string{
		StateRequesting: "requesting",
		StateVerifying:  "verifying",
		StateDeleting:   "deleting",
		StateRetrying:   "retrying",
		StateComplete:   "complete",
		StateFailed:     "failed",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("state %d: expected %q, got %q", state, want, got)
		}
	}
}
