package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/trackx/internal/shared"
	"golang.org/x/oauth2"
)

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, fmt.Errorf("invalid_client")
}

func TestStaticTokenProvider(t *testing.T) {
	if _, err := StaticTokenProvider("").GetAccessToken(context.Background()); !errors.Is(err, shared.ErrTokenUnavailable) {
		t.Errorf("empty provider should return ErrTokenUnavailable, got %v", err)
	}

	token, err := StaticTokenProvider("api-key").GetAccessToken(context.Background())
	if err != nil || token != "api-key" {
		t.Errorf("expected api-key, got %q (%v)", token, err)
	}
}

func TestSpotifyTokenProvider(t *testing.T) {
	t.Run("missing credentials rejected at construction", func(t *testing.T) {
		if _, err := NewSpotifyTokenProvider(context.Background(), "", "secret"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("rejected credentials surface as not authenticated", func(t *testing.T) {
		provider := &SpotifyTokenProvider{source: failingTokenSource{}}
		if _, err := provider.GetAccessToken(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
