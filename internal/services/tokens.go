// TokenProvider implementations for platforms that require credentials.
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const spotifyTokenURL = "https://accounts.spotify.com/api/token"

// StaticTokenProvider returns a fixed token (e.g. an API key). An empty value
// means the platform is unavailable.
type StaticTokenProvider string

func (p StaticTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	if p == "" {
		return "", shared.ErrTokenUnavailable
	}
	return string(p), nil
}

// SpotifyTokenProvider implements [TokenProvider] via the OAuth2
// client-credentials flow. The underlying [oauth2.TokenSource] caches tokens
// and refreshes them when they expire.
type SpotifyTokenProvider struct {
	source oauth2.TokenSource
}

// NewSpotifyTokenProvider creates a provider for the given app credentials.
// Returns an error if either credential is missing.
func NewSpotifyTokenProvider(ctx context.Context, clientID, clientSecret string) (*SpotifyTokenProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret required", shared.ErrMissingCredentials)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyTokenProvider{source: config.TokenSource(ctx)}, nil
}

// GetAccessToken returns a cached or freshly minted app token. Rejected
// credentials surface as [shared.ErrNotAuthenticated].
func (p *SpotifyTokenProvider) GetAccessToken(ctx context.Context) (string, error) {
	token, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	return token.AccessToken, nil
}
