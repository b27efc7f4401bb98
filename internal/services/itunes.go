// Apple iTunes Search API implementation of [SearchAdapter]
//
// The iTunes Search API requires no authentication:
// https://performance-partners.apple.com/search-api
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
)

const defaultITunesBaseURL = "https://itunes.apple.com"

const itunesMinInterval = 50 * time.Millisecond

// ITunesResult represents one song in an iTunes search response.
type ITunesResult struct {
	TrackID        int64  `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	PreviewURL     string `json:"previewUrl"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

type itunesSearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []ITunesResult `json:"results"`
}

// ITunesAdapter implements [SearchAdapter] for the iTunes Search API.
type ITunesAdapter struct {
	baseURL string
	client  *RateLimitedClient
}

// NewITunesAdapter creates an adapter. baseURL overrides the API host for testing.
func NewITunesAdapter(baseURL string, limits shared.RateLimitConfig, logger *log.Logger) *ITunesAdapter {
	if baseURL == "" {
		baseURL = defaultITunesBaseURL
	}

	return &ITunesAdapter{
		baseURL: baseURL,
		client:  NewConfiguredClient(limits, itunesMinInterval, logger),
	}
}

func (a *ITunesAdapter) Platform() Platform { return PlatformApple }

// Available always returns true; the search API needs no credentials.
func (a *ITunesAdapter) Available(ctx context.Context) bool { return true }

// ExtractDirectID accepts a known Apple track ID only if it is all digits.
func (a *ITunesAdapter) ExtractDirectID(query TrackQuery) string {
	id := query.Known.AppleID
	if id == "" {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return id
}

func (a *ITunesAdapter) SearchTop1(ctx context.Context, artist, title string) (*Candidate, error) {
	candidates, err := a.search(ctx, artist, title, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func (a *ITunesAdapter) SearchTopN(ctx context.Context, artist, title string, n int) ([]Candidate, error) {
	return a.search(ctx, artist, title, n)
}

func (a *ITunesAdapter) search(ctx context.Context, artist, title string, limit int) ([]Candidate, error) {
	term := fmt.Sprintf("%s %s", artist, title)
	endpoint := fmt.Sprintf("%s/search?term=%s&entity=song&media=music&limit=%d",
		a.baseURL, url.QueryEscape(term), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result itunesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(result.Results))
	for _, item := range result.Results {
		candidates = append(candidates, Candidate{
			Platform:   PlatformApple,
			ID:         fmt.Sprintf("%d", item.TrackID),
			Artist:     item.ArtistName,
			Title:      item.TrackName,
			Album:      item.CollectionName,
			PreviewURL: item.PreviewURL,
			ArtworkURL: item.ArtworkURL100,
		})
	}

	return candidates, nil
}
