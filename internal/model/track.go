package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TrackStatus is the resolution state of one per-track download attempt.
type TrackStatus int

const (
	// StatusPending means the attempt has been created but not resolved.
	StatusPending TrackStatus = iota

	// StatusCompleted means the canonical output file exists, either
	// because it was downloaded and renamed or because it was already
	// present (idempotent skip).
	StatusCompleted

	// StatusTimedOut means the completion detector hit its deadline.
	// A timed-out attempt may be retried; it is not a final outcome.
	StatusTimedOut

	// StatusFailed means the operator chose to skip the track after one
	// or more timeouts.
	StatusFailed
)

// String returns a short lower-case label for the status.
func (s TrackStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed out"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// DownloadAttempt tracks one trigger-to-resolution cycle for a single track.
//
// An attempt is created when the shared download control is activated,
// resolved by the completion detector, and consumed by the orchestrator to
// decide between rename and retry/skip.
type DownloadAttempt struct {
	// TrackIndex is the 0-based position of the track in mixer order.
	TrackIndex int

	// TargetFileName is the canonical output filename for the track,
	// computed with TargetFileName before the attempt starts.
	TargetFileName string

	// Deadline is when the completion detector gives up.
	Deadline time.Time

	// Status is the attempt's resolution.
	Status TrackStatus
}

// TrackOutcome is the final per-track result reported by the orchestrator.
type TrackOutcome struct {
	// Index is the 0-based track position in mixer order.
	Index int

	// DisplayName is the track caption read from the mixer widget.
	DisplayName string

	// FileName is the canonical output filename.
	FileName string

	// Status is the final status: StatusCompleted or StatusFailed.
	Status TrackStatus

	// Skipped reports that the file already existed and the mixer was
	// never touched for this track.
	Skipped bool

	// Bytes is the size of the output file, when known.
	Bytes int64
}

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 -]`)
	multiWhitespace = regexp.MustCompile(`\s+`)
)

// SanitizeTrackName normalizes a track's display name for use in a filename.
//
// Every character outside [A-Za-z0-9 -] is replaced with an underscore,
// runs of whitespace are collapsed to a single space, and the result is
// trimmed. The mapping is intentionally lossy but deterministic, so the
// same display name always yields the same filename.
//
// Example:
//
//	SanitizeTrackName("Lead Vocal (Take 2)") // "Lead Vocal _Take 2_"
func SanitizeTrackName(name string) string {
	name = disallowedChars.ReplaceAllString(name, "_")
	name = multiWhitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// TargetFileName computes the canonical output filename for a track.
//
// index is 0-based mixer order; the filename carries the 1-based position
// zero-padded to two digits:
//
//	TargetFileName(2, "Lead Vocal (Take 2)") // "03 - Lead Vocal _Take 2_.mp3"
//
// The result is a pure function of its inputs. The orchestrator relies on
// this to skip tracks whose file already exists on a re-run.
func TargetFileName(index int, displayName string) string {
	return fmt.Sprintf("%02d - %s.mp3", index+1, SanitizeTrackName(displayName))
}
