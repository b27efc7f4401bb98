// MusicBrainz recording search implementation of [SearchAdapter]
//
// MusicBrainz API reference: https://musicbrainz.org/doc/MusicBrainz_API/Search
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/google/uuid"
)

const defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"

// MusicBrainz allows one request per second for anonymous clients.
const musicBrainzMinInterval = time.Second

type mbArtistCredit struct {
	Name string `json:"name"`
}

type mbRelease struct {
	Title string `json:"title"`
}

// MusicBrainzRecording represents one recording in a search response.
type MusicBrainzRecording struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Score        int              `json:"score"` // 0-100 relevance from the search server
	ArtistCredit []mbArtistCredit `json:"artist-credit"`
	Releases     []mbRelease      `json:"releases"`
}

type mbSearchResponse struct {
	Recordings []MusicBrainzRecording `json:"recordings"`
}

// MusicBrainzAdapter implements [SearchAdapter] for MusicBrainz recording search.
// Requires no authentication but mandates a descriptive User-Agent.
type MusicBrainzAdapter struct {
	baseURL   string
	userAgent string
	client    *RateLimitedClient
}

// NewMusicBrainzAdapter creates an adapter with the given contact string (per
// MusicBrainz etiquette), an optional base URL override for testing, and the
// configured rate limits.
func NewMusicBrainzAdapter(contact, baseURL string, limits shared.RateLimitConfig, logger *log.Logger) *MusicBrainzAdapter {
	if baseURL == "" {
		baseURL = defaultMusicBrainzBaseURL
	}
	if contact == "" {
		contact = "trackx/0.1"
	}

	return &MusicBrainzAdapter{
		baseURL:   baseURL,
		userAgent: contact,
		client:    NewConfiguredClient(limits, musicBrainzMinInterval, logger),
	}
}

func (m *MusicBrainzAdapter) Platform() Platform { return PlatformMusicBrainz }

// Available always returns true; MusicBrainz needs no credentials.
func (m *MusicBrainzAdapter) Available(ctx context.Context) bool { return true }

// ExtractDirectID accepts a known MusicBrainz recording ID only if it parses
// as a UUID.
func (m *MusicBrainzAdapter) ExtractDirectID(query TrackQuery) string {
	id := query.Known.MusicBrainzID
	if id == "" {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

// SearchTop1 runs a field-qualified Lucene query constraining both artist and
// recording title, returning only the best hit.
func (m *MusicBrainzAdapter) SearchTop1(ctx context.Context, artist, title string) (*Candidate, error) {
	query := fmt.Sprintf("artist:%q AND recording:%q", artist, title)
	candidates, err := m.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// SearchTopN runs a plain-term query without field operators, relying on the
// search server's own ranking.
func (m *MusicBrainzAdapter) SearchTopN(ctx context.Context, artist, title string, n int) ([]Candidate, error) {
	return m.search(ctx, fmt.Sprintf("%s %s", artist, title), n)
}

func (m *MusicBrainzAdapter) search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=%d",
		m.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result mbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(result.Recordings))
	for _, rec := range result.Recordings {
		c := Candidate{
			Platform: PlatformMusicBrainz,
			ID:       rec.ID,
			Title:    rec.Title,
			Score:    float64(rec.Score) / 100,
		}
		if len(rec.ArtistCredit) > 0 {
			c.Artist = rec.ArtistCredit[0].Name
		}
		if len(rec.Releases) > 0 {
			c.Album = rec.Releases[0].Title
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
