package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/resolver"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
)

// TrackStatus classifies the outcome of verifying one track.
type TrackStatus string

const (
	StatusVerified TrackStatus = "verified"
	StatusFailed   TrackStatus = "failed"
	StatusSkipped  TrackStatus = "skipped"
)

// ResolvedTrack pairs a query with its per-platform resolution outcomes.
// Owned by the verifier during the batch and handed to the caller read-only.
type ResolvedTrack struct {
	Query  services.TrackQuery `json:"query"`
	Status TrackStatus         `json:"status"`

	// VerifiedOn names the primary-cascade platform that accepted the track.
	VerifiedOn services.Platform `json:"verified_on,omitempty"`

	// Results holds the accepted resolution per platform: the verifying
	// platform's result plus any successful enrichment lookups.
	Results map[services.Platform]resolver.Result `json:"results,omitempty"`

	Reason string `json:"reason,omitempty"`
}

// TrackFailure records why one track failed verification.
type TrackFailure struct {
	Track  string `json:"track"`
	Reason string `json:"reason"`
}

// Summary aggregates a verification batch. Counters only increase while the
// batch runs; verified+failed+skipped always equals total on return.
type Summary struct {
	RunID    string         `json:"run_id"`
	Total    int            `json:"total"`
	Verified int            `json:"verified"`
	Failed   int            `json:"failed"`
	Skipped  int            `json:"skipped"`
	TimedOut bool           `json:"timed_out,omitempty"`
	Failures []TrackFailure `json:"failures,omitempty"`
}

// ResolutionCache persists accepted search resolutions between runs.
type ResolutionCache interface {
	// Lookup returns a previously stored result, or nil when absent.
	Lookup(ctx context.Context, platform services.Platform, artist, title string) (*resolver.Result, error)

	// Store saves an accepted resolution.
	Store(ctx context.Context, platform services.Platform, artist, title string, res resolver.Result) error
}

// VerifierOpts contains configuration for creating a [Verifier].
type VerifierOpts struct {
	// Cascade is the ordered list of primary platforms; the first to accept a
	// track verifies it.
	Cascade []services.SearchAdapter

	// Enrich lists secondary platforms tried best-effort after verification.
	Enrich []services.SearchAdapter

	Resolver *resolver.Resolver
	Cache    ResolutionCache // optional

	// TrackDelay spaces consecutive tracks to avoid bursting any adapter
	// beyond its own rate limiter.
	TrackDelay time.Duration

	// Timeout bounds a whole batch; zero means no deadline.
	Timeout time.Duration

	Logger *log.Logger
}

// Verifier drives batches of track queries through the platform cascade.
// Hold one verifier per concurrent batch; summaries are built per call.
type Verifier struct {
	cascade    []services.SearchAdapter
	enrich     []services.SearchAdapter
	resolver   *resolver.Resolver
	cache      ResolutionCache
	trackDelay time.Duration
	timeout    time.Duration
	logger     *log.Logger
}

// NewVerifier creates a Verifier with the provided options.
func NewVerifier(opts VerifierOpts) *Verifier {
	if opts.Resolver == nil {
		opts.Resolver = resolver.New(resolver.Config{Logger: opts.Logger})
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Verifier{
		cascade:    opts.Cascade,
		enrich:     opts.Enrich,
		resolver:   opts.Resolver,
		cache:      opts.Cache,
		trackDelay: opts.TrackDelay,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never stalls the batch.
func (v *Verifier) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// VerifyBatch processes tracks sequentially in input order and returns one
// [ResolvedTrack] per input plus an aggregate [Summary].
//
// Progress updates fire after each track completes, with strictly increasing
// step numbers. Cancellation and the configured timeout are honored between
// tracks: in-flight requests finish, remaining tracks are marked skipped, and
// the summary reports TimedOut when the deadline was the cause.
func (v *Verifier) VerifyBatch(ctx context.Context, tracks []services.TrackQuery, progress chan<- ProgressUpdate) ([]ResolvedTrack, *Summary) {
	summary := &Summary{RunID: shared.GenerateID(), Total: len(tracks)}
	resolved := make([]ResolvedTrack, 0, len(tracks))

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	logger := shared.WithLogger(v.logger, "run_id", summary.RunID)
	logger.Info("starting verification batch", "tracks", len(tracks))

	for i, query := range tracks {
		select {
		case <-ctx.Done():
			summary.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
			logger.Warn("batch abandoned", "processed", i, "timed_out", summary.TimedOut)
			for _, rest := range tracks[i:] {
				resolved = append(resolved, ResolvedTrack{
					Query:  rest,
					Status: StatusSkipped,
					Reason: "not attempted: run cancelled",
				})
				summary.Skipped++
			}
			return resolved, summary
		default:
		}

		v.sendProgress(progress, verifyingUpdate(i+1, len(tracks), query.Label()))

		var rt ResolvedTrack
		if query.Incomplete() {
			rt = ResolvedTrack{Query: query, Status: StatusSkipped, Reason: "missing artist or title"}
			summary.Skipped++
		} else {
			rt = v.verifyTrack(ctx, query)
			switch rt.Status {
			case StatusVerified:
				summary.Verified++
			default:
				summary.Failed++
				summary.Failures = append(summary.Failures, TrackFailure{Track: query.Label(), Reason: rt.Reason})
			}
		}

		resolved = append(resolved, rt)
		v.sendProgress(progress, trackResultUpdate(i+1, len(tracks), query.Label(), rt.Status))

		if v.trackDelay > 0 && i < len(tracks)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(v.trackDelay):
			}
		}
	}

	logger.Info("batch complete",
		"verified", summary.Verified, "failed", summary.Failed, "skipped", summary.Skipped)
	return resolved, summary
}

// verifyTrack runs the primary cascade for one track, then enrichment lookups
// when a platform accepted it.
func (v *Verifier) verifyTrack(ctx context.Context, query services.TrackQuery) ResolvedTrack {
	rt := ResolvedTrack{
		Query:   query,
		Status:  StatusFailed,
		Results: make(map[services.Platform]resolver.Result),
	}

	var reasons []string
	for _, adapter := range v.cascade {
		platform := adapter.Platform()

		if !adapter.Available(ctx) {
			v.logger.Debug("platform unavailable, skipping", "platform", platform, "track", query.Label())
			reasons = append(reasons, fmt.Sprintf("%s: %v", platform, shared.ErrPlatformUnavailable))
			continue
		}

		res := v.cachedResolve(ctx, query, adapter)
		if res.Failed() {
			reasons = append(reasons, res.Reason)
			continue
		}

		rt.Results[platform] = res
		rt.Status = StatusVerified
		rt.VerifiedOn = platform
		break
	}

	if rt.Status != StatusVerified {
		if len(reasons) == 0 {
			reasons = append(reasons, "no platforms configured")
		}
		rt.Reason = strings.Join(reasons, "; ")
		return rt
	}

	// Enrichment: best-effort secondary lookups. A failure here leaves the
	// platform's identifier unset and is otherwise invisible to the caller.
	for _, adapter := range v.enrich {
		platform := adapter.Platform()
		if _, done := rt.Results[platform]; done || !adapter.Available(ctx) {
			continue
		}
		if res := v.cachedResolve(ctx, query, adapter); !res.Failed() {
			rt.Results[platform] = res
		}
	}

	return rt
}

// cachedResolve consults the resolution cache before running the resolver and
// stores newly accepted soft/hard results. Direct hits skip the cache entirely.
func (v *Verifier) cachedResolve(ctx context.Context, query services.TrackQuery, adapter services.SearchAdapter) resolver.Result {
	platform := adapter.Platform()

	if v.cache != nil {
		if cached, err := v.cache.Lookup(ctx, platform, query.Artist, query.Title); err == nil && cached != nil {
			v.logger.Debug("resolution cache hit", "platform", platform, "track", query.Label())
			return *cached
		}
	}

	res := v.resolver.Resolve(ctx, query, adapter)

	if v.cache != nil && !res.Failed() && res.Tier != resolver.TierDirect {
		if err := v.cache.Store(ctx, platform, query.Artist, query.Title, res); err != nil {
			v.logger.Debug("resolution cache store failed", "err", err)
		}
	}

	return res
}
