package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenUnavailable = fmt.Errorf("access token unavailable")

	// API and platform errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrRateLimited         = fmt.Errorf("rate limited by upstream API")
	ErrPlatformUnavailable = fmt.Errorf("platform unavailable")
	ErrTrackNotFound       = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
