// Package tasks orchestrates batch track verification and the bounded
// auto-replacement loop, with real-time progress reporting.
//
// # Verification
//
// [Verifier.VerifyBatch] drives a batch of track queries through a
// cross-platform cascade:
//
//  1. Tracks missing artist or title are skipped without any network call.
//  2. Each remaining track is resolved against the primary cascade platforms
//     in configured order; the first accepting platform verifies the track.
//  3. Verified tracks get best-effort enrichment lookups on the secondary
//     platforms. Enrichment failures are silent.
//
// Tracks are processed sequentially and in input order: every platform
// adapter owns a single rate limiter, and concurrent tracks would violate its
// minimum-interval contract. A small configurable delay separates tracks.
//
// # Replacement
//
// [Replacer.Run] is a bounded retry state machine over a batch of failed
// tracks: request replacement candidates from an external generator, verify
// them, delete the superseded originals, and retry up to MaxRetries rounds.
// An exhausted loop reports UserActionNeeded so the caller can fall back to
// manual resolution. Collaborator errors are absorbed per attempt; they
// consume a retry instead of crashing the round.
//
// # Progress Reporting
//
// All operations send [ProgressUpdate] values on a caller-supplied channel
// using select with default, so a slow or absent consumer never blocks the
// orchestrator. Updates fire after each track completes, in input order.
//
// # Caching
//
// The optional [ResolutionCache] interface persists accepted soft/hard
// resolutions between runs (repositories.ResolutionCache). Direct hits are
// never cached since no search happened. Cache errors are logged and ignored.
package tasks
