// package resolver implements the tiered track resolution algorithm.
//
// For one (TrackQuery, platform) pair the resolver tries, in order: a direct
// identifier already on the query, a narrow "soft" search when a prior source
// vouches for the track, and a broader scored "hard" search. Each tier
// degrades to the next on failure; the resolver never returns an error.
package resolver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/desertthunder/trackx/internal/similarity"
)

// Tier identifies which resolution strategy produced a match, in increasing
// order of uncertainty.
type Tier int

const (
	TierDirect Tier = iota
	TierSoft
	TierHard
	TierFailed
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierSoft:
		return "soft"
	case TierHard:
		return "hard"
	case TierFailed:
		return "failed"
	default:
		return ""
	}
}

// MarshalText renders the tier name in JSON output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TierFromString parses a tier name, used when reading cached resolutions.
func TierFromString(s string) (Tier, error) {
	switch s {
	case "direct":
		return TierDirect, nil
	case "soft":
		return TierSoft, nil
	case "hard":
		return TierHard, nil
	case "failed":
		return TierFailed, nil
	default:
		return TierFailed, fmt.Errorf("%w: unknown tier %q", shared.ErrInvalidInput, s)
	}
}

// Result is the outcome of resolving one track against one platform.
//
// Invariants: Tier == TierFailed exactly when ID is empty, and
// Tier == TierDirect implies Confidence == 1.0.
type Result struct {
	Platform   services.Platform   `json:"platform"`
	Tier       Tier                `json:"tier"`
	ID         string              `json:"id,omitempty"`
	Confidence float64             `json:"confidence"`
	Candidate  *services.Candidate `json:"candidate,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// Failed reports whether no tier produced an accepted match.
func (r Result) Failed() bool { return r.Tier == TierFailed }

// Weights controls how title and artist similarity combine into a confidence
// score. Title is weighted higher: platform search is much noisier on artist
// credits (features, collaborations, "Various Artists").
type Weights struct {
	Title  float64
	Artist float64
}

// Config contains resolver thresholds. Zero values fall back to defaults; a
// negative threshold configures a floor of zero, which the zero value itself
// cannot express.
type Config struct {
	// SoftThreshold is the acceptance floor for soft search (exclusive).
	// Lower than the hard floor would suggest because a prior source already
	// validated the track's existence.
	SoftThreshold float64
	// HardThreshold is the acceptance floor for hard search (inclusive).
	HardThreshold float64
	// HardLimit is how many candidates a hard search requests for scoring.
	HardLimit int
	// Weights applies to every platform without an override.
	Weights Weights
	// PlatformWeights overrides weights per platform. Spotify's user-style
	// search surfaces title matches less aggressively, so it leans harder on
	// the artist term.
	PlatformWeights map[services.Platform]Weights
	Logger          *log.Logger
}

// Resolver runs the tiered algorithm. Safe for reuse across queries; holds no
// per-query state.
type Resolver struct {
	cfg Config
}

// New creates a Resolver, applying defaults for unset config fields:
// thresholds 0.5/0.5, five hard-search candidates, weights 0.7/0.3 with a
// 0.55/0.45 Spotify override.
func New(cfg Config) *Resolver {
	switch {
	case cfg.SoftThreshold < 0:
		cfg.SoftThreshold = 0
	case cfg.SoftThreshold == 0:
		cfg.SoftThreshold = 0.5
	}
	switch {
	case cfg.HardThreshold < 0:
		cfg.HardThreshold = 0
	case cfg.HardThreshold == 0:
		cfg.HardThreshold = 0.5
	}
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = 5
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = Weights{Title: 0.7, Artist: 0.3}
	}
	if cfg.PlatformWeights == nil {
		cfg.PlatformWeights = map[services.Platform]Weights{
			services.PlatformSpotify: {Title: 0.55, Artist: 0.45},
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}
	return &Resolver{cfg: cfg}
}

// Resolve runs the direct → soft → hard cascade for one query on one platform.
// Adapter errors at any tier are treated as "no candidates for this tier" and
// the resolver falls through; the returned Result is always well-formed.
func (r *Resolver) Resolve(ctx context.Context, query services.TrackQuery, adapter services.SearchAdapter) Result {
	platform := adapter.Platform()
	weights := r.weightsFor(platform)

	// Direct: a trusted identifier is already on the query. No scoring, no network.
	if id := adapter.ExtractDirectID(query); id != "" {
		return Result{Platform: platform, Tier: TierDirect, ID: id, Confidence: 1.0}
	}

	// Soft: only when a prior source vouches for the track's existence.
	if query.VerifiedBy != "" {
		candidate, err := adapter.SearchTop1(ctx, query.Artist, query.Title)
		switch {
		case err != nil:
			r.cfg.Logger.Debug("soft search failed, falling through",
				"platform", platform, "track", query.Label(), "err", err)
		case candidate != nil:
			confidence := r.score(query, *candidate, weights)
			if confidence > r.cfg.SoftThreshold {
				return Result{
					Platform:   platform,
					Tier:       TierSoft,
					ID:         candidate.ID,
					Confidence: confidence,
					Candidate:  candidate,
				}
			}
			r.cfg.Logger.Debug("soft match below threshold",
				"platform", platform, "track", query.Label(), "confidence", confidence)
		}
	}

	// Hard: score the platform's top candidates; first maximum wins, so ties
	// keep the platform's own ranking order.
	candidates, err := adapter.SearchTopN(ctx, query.Artist, query.Title, r.cfg.HardLimit)
	if err != nil {
		r.cfg.Logger.Debug("hard search failed",
			"platform", platform, "track", query.Label(), "err", err)
	}

	var best *services.Candidate
	bestConfidence := 0.0
	for i := range candidates {
		if confidence := r.score(query, candidates[i], weights); confidence > bestConfidence {
			best = &candidates[i]
			bestConfidence = confidence
		}
	}

	if best != nil && bestConfidence >= r.cfg.HardThreshold {
		return Result{
			Platform:   platform,
			Tier:       TierHard,
			ID:         best.ID,
			Confidence: bestConfidence,
			Candidate:  best,
		}
	}

	return Result{
		Platform: platform,
		Tier:     TierFailed,
		Reason:   fmt.Sprintf("no match found on %s", platform),
	}
}

func (r *Resolver) score(query services.TrackQuery, c services.Candidate, w Weights) float64 {
	return similarity.Similarity(query.Title, c.Title)*w.Title +
		similarity.Similarity(query.Artist, c.Artist)*w.Artist
}

func (r *Resolver) weightsFor(platform services.Platform) Weights {
	if w, ok := r.cfg.PlatformWeights[platform]; ok {
		return w
	}
	return r.cfg.Weights
}
