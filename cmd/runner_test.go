package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
)

type stubAdapter struct {
	platform services.Platform
}

func (s *stubAdapter) Platform() services.Platform                  { return s.platform }
func (s *stubAdapter) ExtractDirectID(q services.TrackQuery) string { return "" }
func (s *stubAdapter) Available(ctx context.Context) bool           { return true }
func (s *stubAdapter) SearchTop1(ctx context.Context, artist, title string) (*services.Candidate, error) {
	return nil, nil
}
func (s *stubAdapter) SearchTopN(ctx context.Context, artist, title string, n int) ([]services.Candidate, error) {
	return nil, nil
}

func TestRunnerOutput(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"verified": 3}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := buf.String(); got != "{\"verified\":3}\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("writeJSON pretty", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"verified": 3}, true); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if !strings.Contains(buf.String(), "  \"verified\": 3") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writePlain("verified %d of %d\n", 3, 5); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if got := buf.String(); got != "verified 3 of 5\n" {
			t.Errorf("unexpected output %q", got)
		}
	})
}

func TestSelectAdapters(t *testing.T) {
	r := NewRunner(RunnerOpts{
		Adapters: map[services.Platform]services.SearchAdapter{
			services.PlatformMusicBrainz: &stubAdapter{platform: services.PlatformMusicBrainz},
			services.PlatformApple:       &stubAdapter{platform: services.PlatformApple},
		},
	})

	selected := r.selectAdapters([]string{"musicbrainz", "spotify", "apple"})

	if len(selected) != 2 {
		t.Fatalf("expected unknown platforms skipped, got %d adapters", len(selected))
	}
	if selected[0].Platform() != services.PlatformMusicBrainz || selected[1].Platform() != services.PlatformApple {
		t.Errorf("adapters must keep cascade order: %v, %v", selected[0].Platform(), selected[1].Platform())
	}
}

func TestLoadTracks(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.json")
		content := `[{"artist": "The Weeknd", "title": "Blinding Lights"}, {"artist": "Dua Lipa", "title": "Levitating"}]`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		tracks, err := loadTracks(path)
		if err != nil {
			t.Fatalf("loadTracks failed: %v", err)
		}
		if len(tracks) != 2 || tracks[0].Artist != "The Weeknd" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadTracks(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := loadTracks(path)
		if err == nil {
			t.Fatal("expected a parse error")
		}
		if !strings.Contains(err.Error(), shared.ErrInvalidInput.Error()) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})
}

func TestFilePoolSource(t *testing.T) {
	pool := []services.TrackQuery{
		{Artist: "a", Title: "one"},
		{Artist: "b", Title: "two"},
		{Artist: "c", Title: "three"},
	}
	source := &filePoolSource{pool: pool}
	ctx := context.Background()

	first, err := source.RequestReplacements(ctx, 2, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if len(first) != 2 || first[0].Title != "one" {
		t.Errorf("unexpected first batch %+v", first)
	}

	// Asking for more than remains drains the pool.
	second, err := source.RequestReplacements(ctx, 5, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if len(second) != 1 || second[0].Title != "three" {
		t.Errorf("unexpected second batch %+v", second)
	}

	if _, err := source.RequestReplacements(ctx, 1, nil); err == nil {
		t.Error("an exhausted pool must return an error")
	}
}
