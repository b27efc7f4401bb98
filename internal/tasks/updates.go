package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	VerifyTracks Phase = iota
	EnrichTrack
	RequestReplacements
	VerifyReplacements
	DeleteOriginals
	RetryRound
	RoundComplete
)

func (p Phase) String() string {
	switch p {
	case VerifyTracks:
		return "verify_tracks"
	case EnrichTrack:
		return "enrich_track"
	case RequestReplacements:
		return "request_replacements"
	case VerifyReplacements:
		return "verify_replacements"
	case DeleteOriginals:
		return "delete_originals"
	case RetryRound:
		return "retry_round"
	case RoundComplete:
		return "round_complete"
	default:
		return ""
	}
}

func verifyingUpdate(step, total int, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   VerifyTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, label),
	}
}

func trackResultUpdate(step, total int, label string, status TrackStatus) ProgressUpdate {
	return ProgressUpdate{
		Phase:   VerifyTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, label, status),
		Data:    status,
	}
}

func requestingUpdate(attempt, maxRetries, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RequestReplacements,
		Step:    attempt,
		Total:   maxRetries,
		Message: fmt.Sprintf("Requesting %d replacement(s), attempt %d/%d...", count, attempt, maxRetries),
	}
}

func deletingUpdate(attempt, maxRetries, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteOriginals,
		Step:    attempt,
		Total:   maxRetries,
		Message: fmt.Sprintf("Deleting %d superseded original(s)...", count),
	}
}

func retryingUpdate(attempt, maxRetries, stillFailed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RetryRound,
		Step:    attempt,
		Total:   maxRetries,
		Message: fmt.Sprintf("%d track(s) still failing, retrying...", stillFailed),
	}
}

func roundCompleteUpdate(attempt, maxRetries, replaced int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RoundComplete,
		Step:    attempt,
		Total:   maxRetries,
		Message: fmt.Sprintf("Replacement round complete: %d track(s) replaced", replaced),
	}
}
