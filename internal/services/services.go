package services

import (
	"context"
	"fmt"
)

// Platform identifies an external search platform.
type Platform string

const (
	PlatformMusicBrainz Platform = "musicbrainz"
	PlatformSpotify     Platform = "spotify"
	PlatformApple       Platform = "apple"
	PlatformYouTube     Platform = "youtube"
)

// KnownIDs holds platform identifiers already present on a track before
// resolution, one optional field per supported platform. Values are validated
// by the owning adapter's ExtractDirectID, never trusted as-is.
type KnownIDs struct {
	MusicBrainzID string `json:"musicbrainz_id,omitempty"`
	SpotifyID     string `json:"spotify_id,omitempty"`
	SpotifyURI    string `json:"spotify_uri,omitempty"`
	SpotifyURL    string `json:"spotify_url,omitempty"`
	AppleID       string `json:"apple_id,omitempty"`
	YouTubeID     string `json:"youtube_id,omitempty"`
	YouTubeURL    string `json:"youtube_url,omitempty"`
}

// TrackQuery is the unit of resolution work: a loosely specified track, often
// produced by an upstream recommendation source and possibly wrong.
// Immutable input; components copy it freely.
type TrackQuery struct {
	// EntryID is the caller's local identifier for this track (e.g. a playlist
	// entry). Used by the replacement loop to delete superseded originals.
	EntryID string `json:"entry_id,omitempty"`

	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album,omitempty"`
	Year   int    `json:"year,omitempty"`

	// VerifiedBy names a platform that previously confirmed this track exists.
	// A non-empty value unlocks the resolver's soft-search tier.
	VerifiedBy Platform `json:"verified_by,omitempty"`

	Known KnownIDs `json:"known,omitempty"`
}

// Label returns a human-readable "Artist - Title" string for logs and progress.
func (q TrackQuery) Label() string {
	return fmt.Sprintf("%s - %s", q.Artist, q.Title)
}

// Incomplete reports whether the query is missing required metadata.
// Incomplete queries are skipped without any network call.
func (q TrackQuery) Incomplete() bool {
	return q.Artist == "" || q.Title == ""
}

// Candidate is one platform search hit.
type Candidate struct {
	Platform   Platform `json:"platform"`
	ID         string   `json:"id"`
	Artist     string   `json:"artist"`
	Title      string   `json:"title"`
	Album      string   `json:"album,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	ArtworkURL string   `json:"artwork_url,omitempty"`

	// Score is the platform's native relevance score normalized to [0,1],
	// zero when the platform does not report one.
	Score float64 `json:"score,omitempty"`
}

// SearchAdapter is the uniform per-platform search contract consumed by the resolver.
type SearchAdapter interface {
	// Platform returns the platform this adapter serves.
	Platform() Platform

	// ExtractDirectID returns a validated platform ID already embedded in the
	// query's known identifiers, or "" if none is present. Performs no network call.
	ExtractDirectID(query TrackQuery) string

	// SearchTop1 runs a narrow query and returns the platform's single
	// best-ranked hit, or nil when the platform has no match.
	SearchTop1(ctx context.Context, artist, title string) (*Candidate, error)

	// SearchTopN runs a broader query and returns up to n candidates in the
	// platform's ranking order.
	SearchTopN(ctx context.Context, artist, title string, n int) ([]Candidate, error)

	// Available reports whether the adapter can reach its platform right now
	// (credentials present). Unavailable platforms are skipped, not failed.
	Available(ctx context.Context) bool
}

// TokenProvider supplies an access token for platforms that require one.
// It is a caller-supplied collaborator; token lifecycle (refresh, storage)
// happens behind this interface.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (string, error)
}
