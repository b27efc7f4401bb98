package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/shared"
	"github.com/desertthunder/trackx/internal/similarity"
)

// ReplacementSource generates substitute track queries for failed tracks.
// Typically backed by an external recommendation generator.
type ReplacementSource interface {
	// RequestReplacements returns up to count candidate tracks. The failed
	// set is provided as context so the generator can avoid repeats.
	RequestReplacements(ctx context.Context, count int, failed []services.TrackQuery) ([]services.TrackQuery, error)
}

// TrackDeleter removes superseded originals from the caller's collection.
type TrackDeleter interface {
	DeleteTracks(ctx context.Context, ids []string) error
}

// ReplaceState identifies where the replacement loop is in its lifecycle.
type ReplaceState int

const (
	StateRequesting ReplaceState = iota
	StateVerifying
	StateDeleting
	StateRetrying
	StateComplete
	StateFailed
)

func (s ReplaceState) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateVerifying:
		return "verifying"
	case StateDeleting:
		return "deleting"
	case StateRetrying:
		return "retrying"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// ReplacementResult summarizes a finished replacement round.
//
// Invariant: ReplacedCount == originalFailedCount - len(StillFailed), and
// Attempts never exceeds the configured maximum.
type ReplacementResult struct {
	Success          bool                  `json:"success"`
	UserActionNeeded bool                  `json:"user_action_needed"`
	Attempts         int                   `json:"attempts"`
	ReplacedCount    int                   `json:"replaced_count"`
	StillFailed      []services.TrackQuery `json:"still_failed,omitempty"`
}

// ReplacerOpts contains configuration for creating a [Replacer].
type ReplacerOpts struct {
	Verifier *Verifier
	Source   ReplacementSource
	Deleter  TrackDeleter // optional; originals without an EntryID are never deleted

	// MaxRetries bounds the number of request-verify-delete rounds (default 3).
	MaxRetries int

	// DuplicateFloor is the Jaro-Winkler score at or above which a generated
	// replacement is considered a rehash of a still-failed track and dropped
	// before verification. Zero disables the guard.
	DuplicateFloor float32

	Logger *log.Logger
}

// Replacer is the bounded retry state machine over a round's still-failed set.
// One Replacer serves one round at a time; runs are sequential.
type Replacer struct {
	verifier       *Verifier
	source         ReplacementSource
	deleter        TrackDeleter
	maxRetries     int
	duplicateFloor float32
	logger         *log.Logger
}

// NewReplacer creates a Replacer with the provided options.
func NewReplacer(opts ReplacerOpts) *Replacer {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Replacer{
		verifier:       opts.Verifier,
		source:         opts.Source,
		deleter:        opts.Deleter,
		maxRetries:     opts.MaxRetries,
		duplicateFloor: opts.DuplicateFloor,
		logger:         opts.Logger,
	}
}

// Run executes the replacement loop for one batch of failed tracks:
// Requesting → Verifying → (Deleting | Retrying) → Complete | Failed.
//
// Originals stay in the still-failed set until a replacement for them both
// verifies and has its original deleted, so a collaborator error at any state
// consumes an attempt instead of losing tracks. The returned result is always
// well-formed; the error is non-nil only when the context ended the run early.
func (r *Replacer) Run(ctx context.Context, failed []services.TrackQuery, progress chan<- ProgressUpdate) (*ReplacementResult, error) {
	originalCount := len(failed)
	still := make([]services.TrackQuery, len(failed))
	copy(still, failed)

	result := &ReplacementResult{}
	state := StateRequesting

	for attempt := 1; attempt <= r.maxRetries && len(still) > 0; attempt++ {
		if err := ctx.Err(); err != nil {
			result.StillFailed = still
			result.ReplacedCount = originalCount - len(still)
			return result, err
		}

		result.Attempts = attempt
		logger := shared.WithLogger(r.logger, "attempt", attempt, "state", state.String())

		// Requesting
		r.sendProgress(progress, requestingUpdate(attempt, r.maxRetries, len(still)))
		candidates, err := r.source.RequestReplacements(ctx, len(still), still)
		if err != nil {
			logger.Warn("replacement source failed", "err", err)
			state = r.nextAfterFailure(attempt)
			continue
		}

		pairs := r.pairReplacements(still, candidates)
		if len(pairs) == 0 {
			logger.Warn("no usable replacement candidates returned")
			state = r.nextAfterFailure(attempt)
			continue
		}

		// Verifying
		state = StateVerifying
		queries := make([]services.TrackQuery, len(pairs))
		for i, p := range pairs {
			queries[i] = p.replacement
		}
		resolved, _ := r.verifier.VerifyBatch(ctx, queries, progress)

		var deletable []string
		var supersededIdx []int
		for i, rt := range resolved {
			if rt.Status != StatusVerified {
				continue
			}
			supersededIdx = append(supersededIdx, pairs[i].originalIndex)
			if id := pairs[i].original.EntryID; id != "" {
				deletable = append(deletable, id)
			}
		}

		// Deleting: only entered when at least one replacement verified.
		if len(supersededIdx) > 0 {
			state = StateDeleting
			if len(deletable) > 0 && r.deleter != nil {
				r.sendProgress(progress, deletingUpdate(attempt, r.maxRetries, len(deletable)))
				if err := r.deleter.DeleteTracks(ctx, deletable); err != nil {
					// Originals are still present; keep them failed and retry.
					logger.Warn("deletion failed, keeping originals in round", "err", err)
					state = r.nextAfterFailure(attempt)
					continue
				}
			}
			still = removeIndexes(still, supersededIdx)
		}

		if len(still) == 0 {
			state = StateComplete
			break
		}
		state = r.nextAfterFailure(attempt)
		if state == StateRetrying {
			r.sendProgress(progress, retryingUpdate(attempt, r.maxRetries, len(still)))
		}
	}

	if len(still) == 0 {
		state = StateComplete
	} else if state != StateFailed {
		state = StateFailed
	}

	result.Success = state == StateComplete
	result.UserActionNeeded = state == StateFailed
	result.StillFailed = still
	result.ReplacedCount = originalCount - len(still)

	r.sendProgress(progress, roundCompleteUpdate(result.Attempts, r.maxRetries, result.ReplacedCount))
	r.logger.Info("replacement round finished",
		"state", state.String(), "attempts", result.Attempts,
		"replaced", result.ReplacedCount, "still_failed", len(still))

	return result, nil
}

func (r *Replacer) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// nextAfterFailure decides between another round and terminal failure.
func (r *Replacer) nextAfterFailure(attempt int) ReplaceState {
	if attempt < r.maxRetries {
		return StateRetrying
	}
	return StateFailed
}

type replacementPair struct {
	originalIndex int
	original      services.TrackQuery
	replacement   services.TrackQuery
}

// pairReplacements matches generated candidates to the originals they would
// supersede, position by position, dropping candidates the duplicate guard
// flags as rehashes of tracks already known to fail.
func (r *Replacer) pairReplacements(still, candidates []services.TrackQuery) []replacementPair {
	var pairs []replacementPair
	for i, candidate := range candidates {
		if i >= len(still) {
			break
		}
		if r.isKnownFailure(candidate, still) {
			r.logger.Debug("dropping near-duplicate replacement", "track", candidate.Label())
			continue
		}
		pairs = append(pairs, replacementPair{originalIndex: i, original: still[i], replacement: candidate})
	}
	return pairs
}

func (r *Replacer) isKnownFailure(candidate services.TrackQuery, still []services.TrackQuery) bool {
	if r.duplicateFloor <= 0 {
		return false
	}
	for _, failed := range still {
		if similarity.NearDuplicate(candidate.Label(), failed.Label(), r.duplicateFloor) {
			return true
		}
	}
	return false
}

// removeIndexes returns tracks without the entries at the given sorted indexes.
func removeIndexes(tracks []services.TrackQuery, indexes []int) []services.TrackQuery {
	drop := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		drop[i] = struct{}{}
	}

	kept := tracks[:0]
	for i, t := range tracks {
		if _, ok := drop[i]; !ok {
			kept = append(kept, t)
		}
	}
	return kept
}
