// Spotify search implementation of [SearchAdapter]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/shared"
)

const defaultSpotifyBaseURL = "https://api.spotify.com/v1"

const spotifyMinInterval = 100 * time.Millisecond

// Spotify track IDs are exactly 22 base62 characters.
var spotifyIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	PreviewURL string          `json:"preview_url"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyAdapter implements [SearchAdapter] for the Spotify search endpoint.
// Requires an app token from a [TokenProvider].
type SpotifyAdapter struct {
	baseURL string
	tokens  TokenProvider
	client  *RateLimitedClient
}

// NewSpotifyAdapter creates an adapter backed by the given token provider.
// baseURL overrides the API host for testing.
func NewSpotifyAdapter(tokens TokenProvider, baseURL string, limits shared.RateLimitConfig, logger *log.Logger) *SpotifyAdapter {
	if baseURL == "" {
		baseURL = defaultSpotifyBaseURL
	}

	return &SpotifyAdapter{
		baseURL: baseURL,
		tokens:  tokens,
		client:  NewConfiguredClient(limits, spotifyMinInterval, logger),
	}
}

func (s *SpotifyAdapter) Platform() Platform { return PlatformSpotify }

// Available reports whether a token can be obtained.
func (s *SpotifyAdapter) Available(ctx context.Context) bool {
	if s.tokens == nil {
		return false
	}
	token, err := s.tokens.GetAccessToken(ctx)
	return err == nil && token != ""
}

// ExtractDirectID looks for a track ID in the query's known Spotify ID, URI
// ("spotify:track:..."), or URL ("open.spotify.com/track/..."), validating the
// 22-character base62 shape in every case.
func (s *SpotifyAdapter) ExtractDirectID(query TrackQuery) string {
	if id := query.Known.SpotifyID; spotifyIDPattern.MatchString(id) {
		return id
	}

	if uri := query.Known.SpotifyURI; strings.HasPrefix(uri, "spotify:track:") {
		if id := strings.TrimPrefix(uri, "spotify:track:"); spotifyIDPattern.MatchString(id) {
			return id
		}
	}

	if raw := query.Known.SpotifyURL; strings.Contains(raw, "open.spotify.com/track/") {
		if u, err := url.Parse(raw); err == nil {
			if id := strings.TrimPrefix(u.Path, "/track/"); spotifyIDPattern.MatchString(id) {
				return id
			}
		}
	}

	return ""
}

// SearchTop1 uses Spotify's field filters for a narrow artist+track query.
func (s *SpotifyAdapter) SearchTop1(ctx context.Context, artist, title string) (*Candidate, error) {
	query := fmt.Sprintf("artist:%q track:%q", artist, title)
	candidates, err := s.search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// SearchTopN uses a plain-term query the way a user would type it.
func (s *SpotifyAdapter) SearchTopN(ctx context.Context, artist, title string, n int) ([]Candidate, error) {
	return s.search(ctx, fmt.Sprintf("%s %s", artist, title), n)
}

func (s *SpotifyAdapter) search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	token, err := s.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d",
		s.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(result.Tracks.Items))
	for _, item := range result.Tracks.Items {
		c := Candidate{
			Platform:   PlatformSpotify,
			ID:         item.ID,
			Title:      item.Name,
			PreviewURL: item.PreviewURL,
			Score:      float64(item.Popularity) / 100,
		}
		if len(item.Artists) > 0 {
			c.Artist = item.Artists[0].Name
		}
		c.Album = item.Album.Name
		if len(item.Album.Images) > 0 {
			c.ArtworkURL = item.Album.Images[0].URL
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
