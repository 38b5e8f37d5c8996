// Package watch detects download completion by polling the filesystem.
//
// The remote service fires no event when a transfer finishes; the only
// observable signal is a new file appearing in the download directory
// without a transport in-progress suffix. The Detector compares directory
// snapshots against a baseline taken before the download was triggered.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTimedOut is returned when no completed file appears before the deadline.
var ErrTimedOut = errors.New("download timed out")

// partialSuffixes are the transport's in-progress naming conventions. A file
// carrying one of these is still being written and never counts as a
// candidate.
var partialSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// IsPartial reports whether name carries an in-progress suffix.
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Snapshot lists the entries currently in dir. A directory that does not
// exist yet yields an empty snapshot, not an error: the browser creates the
// download directory lazily.
func Snapshot(dir string) map[string]struct{} {
	snapshot := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if err != nil {
		return snapshot
	}
	for _, entry := range entries {
		snapshot[entry.Name()] = struct{}{}
	}
	return snapshot
}

// Detector polls a directory for new completed files.
type Detector struct {
	// PollInterval is the time between directory scans.
	PollInterval time.Duration

	// Grace is the settle period after a candidate is first seen, letting
	// the transport finish flushing before the file is handed out. It also
	// closes the race where a file is renamed out of its partial name
	// concurrently with a scan.
	Grace time.Duration
}

// NewDetector returns a Detector with production intervals.
func NewDetector() Detector {
	return Detector{
		PollInterval: 500 * time.Millisecond,
		Grace:        time.Second,
	}
}

// AwaitNewFile blocks until a file absent from before and free of an
// in-progress suffix appears in dir, then returns its full path. It returns
// ErrTimedOut when timeout elapses first, or ctx's error on cancellation.
func (d Detector) AwaitNewFile(ctx context.Context, dir string, before map[string]struct{}, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		if name, ok := d.findCandidate(dir, before); ok {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(d.Grace):
			}
			// The candidate may have been a rename-in-flight; confirm
			// it still exists under its completed name.
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
			continue
		}

		if time.Now().After(deadline) {
			return "", ErrTimedOut
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d.PollInterval):
		}
	}
}

func (d Detector) findCandidate(dir string, before map[string]struct{}) (string, bool) {
	for name := range Snapshot(dir) {
		if _, seen := before[name]; seen {
			continue
		}
		if IsPartial(name) {
			continue
		}
		return name, true
	}
	return "", false
}
