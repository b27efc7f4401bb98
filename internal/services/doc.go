// Package services defines the [SearchAdapter] contract for streaming platform
// search APIs and implements it for MusicBrainz, Spotify, Apple/iTunes, and YouTube.
//
// # Adapter Contract
//
// Every platform exposes the same three operations, keeping the resolver
// platform-agnostic:
//
//  1. [SearchAdapter.ExtractDirectID] : inspect identifiers already present on
//     the query (prior IDs, URIs, URLs). No network call. Malformed-looking
//     values are treated as absent.
//  2. [SearchAdapter.SearchTop1] : single narrow query, best-ranked hit or nil.
//  3. [SearchAdapter.SearchTopN] : broader query returning up to n candidates
//     for scoring, relying on the platform's own ranking.
//
// # Rate Limiting
//
// Every adapter routes its HTTP calls through a [RateLimitedClient], which
// enforces a platform-specific minimum interval between requests and retries
// 503/429 responses with exponential backoff. Each adapter owns its client;
// nothing else touches the limiter state.
//
// # Authentication
//
// Platforms that need credentials take a [TokenProvider]. A provider returning
// no token marks the platform unavailable for the run; the caller skips it
// rather than failing the batch. [SpotifyTokenProvider] wraps the OAuth2
// client-credentials flow; [StaticTokenProvider] carries an API key.
//
// # Error Handling
//
// Adapters use typed errors from the shared package:
//   - [shared.ErrRateLimited] : backoff retries exhausted
//   - [shared.ErrAPIRequest] : HTTP request failed or non-2xx status
//   - [shared.ErrTokenUnavailable] : TokenProvider returned nothing
//   - [shared.ErrNotAuthenticated] : credentials were rejected upstream
package services
