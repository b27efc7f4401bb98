// YouTube Data API v3 implementation of [SearchAdapter]
//
// Uses the public search endpoint with an API key:
// https://developers.google.com/youtube/v3/docs/search/list
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

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

const youtubeMinInterval = 100 * time.Millisecond

// YouTube video IDs are exactly 11 characters from the base64url alphabet.
var youtubeIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

type ytThumbnail struct {
	URL string `json:"url"`
}

type ytSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Thumbnails   struct {
		Default ytThumbnail `json:"default"`
		High    ytThumbnail `json:"high"`
	} `json:"thumbnails"`
}

type ytSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet ytSnippet `json:"snippet"`
}

type ytSearchResponse struct {
	Items []ytSearchItem `json:"items"`
}

// YouTubeAdapter implements [SearchAdapter] for YouTube video search.
// The channel title stands in for the artist; music uploads usually carry the
// artist channel or "Artist - Topic".
type YouTubeAdapter struct {
	baseURL string
	tokens  TokenProvider
	client  *RateLimitedClient
}

// NewYouTubeAdapter creates an adapter using the given API key provider.
// baseURL overrides the API host for testing.
func NewYouTubeAdapter(tokens TokenProvider, baseURL string, limits shared.RateLimitConfig, logger *log.Logger) *YouTubeAdapter {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}

	return &YouTubeAdapter{
		baseURL: baseURL,
		tokens:  tokens,
		client:  NewConfiguredClient(limits, youtubeMinInterval, logger),
	}
}

func (y *YouTubeAdapter) Platform() Platform { return PlatformYouTube }

// Available reports whether an API key is present.
func (y *YouTubeAdapter) Available(ctx context.Context) bool {
	if y.tokens == nil {
		return false
	}
	key, err := y.tokens.GetAccessToken(ctx)
	return err == nil && key != ""
}

// ExtractDirectID looks for an 11-character video ID in the query's known
// YouTube ID or URL (watch?v= and youtu.be/ forms).
func (y *YouTubeAdapter) ExtractDirectID(query TrackQuery) string {
	if id := query.Known.YouTubeID; youtubeIDPattern.MatchString(id) {
		return id
	}

	raw := query.Known.YouTubeURL
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if strings.HasSuffix(u.Host, "youtu.be") {
		if id := strings.TrimPrefix(u.Path, "/"); youtubeIDPattern.MatchString(id) {
			return id
		}
		return ""
	}

	if id := u.Query().Get("v"); youtubeIDPattern.MatchString(id) {
		return id
	}

	return ""
}

func (y *YouTubeAdapter) SearchTop1(ctx context.Context, artist, title string) (*Candidate, error) {
	candidates, err := y.search(ctx, artist, title, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func (y *YouTubeAdapter) SearchTopN(ctx context.Context, artist, title string, n int) ([]Candidate, error) {
	return y.search(ctx, artist, title, n)
}

func (y *YouTubeAdapter) search(ctx context.Context, artist, title string, limit int) ([]Candidate, error) {
	key, err := y.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("%s %s", artist, title)
	endpoint := fmt.Sprintf("%s/search?part=snippet&type=video&videoCategoryId=10&q=%s&maxResults=%d&key=%s",
		y.baseURL, url.QueryEscape(query), limit, url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ytSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		c := Candidate{
			Platform: PlatformYouTube,
			ID:       item.ID.VideoID,
			Artist:   strings.TrimSuffix(item.Snippet.ChannelTitle, " - Topic"),
			Title:    item.Snippet.Title,
		}
		if item.Snippet.Thumbnails.High.URL != "" {
			c.ArtworkURL = item.Snippet.Thumbnails.High.URL
		} else {
			c.ArtworkURL = item.Snippet.Thumbnails.Default.URL
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
