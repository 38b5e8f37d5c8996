// Package model defines the core domain types for mixer-downloader.
//
// The types in this package are deliberately plain data:
//
//   - CatalogEntry: one purchased mix in the user's catalog
//   - DownloadAttempt: the lifecycle of one per-track download
//   - TrackOutcome: the final per-track result reported by the orchestrator
//
// The package also owns canonical output naming. Every track's target
// filename is a pure function of its position and display name (see
// TargetFileName), which is what makes re-runs of the pipeline idempotent:
// a track whose canonical file already exists on disk is skipped without
// touching the mixer widget.
package model
