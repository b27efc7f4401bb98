// Package repositories provides SQLite-backed persistence for accepted track
// resolutions.
//
// [ResolutionCache] implements the cache contract consumed by the verification
// orchestrator: search-derived matches are stored keyed by platform plus the
// normalized artist and title, so a later run with cosmetically different
// metadata ("Beyoncé" vs "beyonce") still hits the same row. Direct identifier
// matches are never written here since no search produced them.
//
// The schema is created lazily on first use. All methods are safe for
// concurrent use to the extent the underlying [database/sql] pool is.
package repositories
