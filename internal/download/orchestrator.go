package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mixpilot/mixer-downloader/internal/audio"
	ioutils "github.com/mixpilot/mixer-downloader/internal/io"
	"github.com/mixpilot/mixer-downloader/internal/mixer"
	"github.com/mixpilot/mixer-downloader/internal/model"
	"github.com/mixpilot/mixer-downloader/internal/session"
	"github.com/mixpilot/mixer-downloader/internal/watch"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Decision is the operator's answer to a download timeout.
type Decision int

const (
	// DecisionRetry repeats the isolate/trigger/await cycle for the
	// same track.
	DecisionRetry Decision = iota

	// DecisionSkip marks the track failed and advances to the next.
	DecisionSkip
)

// Decider supplies the interactive retry/skip choice after a timeout.
// attempt is 1-based and counts completed isolate/trigger/await cycles.
type Decider interface {
	Decide(trackName string, attempt int) Decision
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(trackName string, attempt int) Decision

// Decide calls f.
func (f DeciderFunc) Decide(trackName string, attempt int) Decision {
	return f(trackName, attempt)
}

// ErrControlMissing is returned when a control the pipeline cannot proceed
// without (the shared download trigger, a track caption) is absent. It is
// fatal for the whole mix.
var ErrControlMissing = errors.New("required mixer control missing")

// Options configures an Orchestrator.
type Options struct {
	// MixName labels output and ID3 album tags.
	MixName string

	// OutputDir receives the mix's files; owned exclusively by the
	// orchestrator while a mix is processed.
	OutputDir string

	// SoloSettle is the grace period after toggling a solo control. The
	// remote mix engine applies isolation asynchronously and offers no
	// completion signal for it.
	SoloSettle time.Duration

	// DownloadTimeout bounds each per-track completion wait.
	DownloadTimeout time.Duration

	// DisableClickTrack toggles the click track's mute once before
	// per-track processing.
	DisableClickTrack bool

	// ModifyTags writes ID3 metadata onto each finished stem.
	ModifyTags bool

	// Detector watches OutputDir for finished transfers.
	Detector watch.Detector

	// Decider resolves timeouts. A nil Decider always skips.
	Decider Decider

	// OnProgress receives log events. May be nil.
	OnProgress func(ProgressEvent)

	// OnTrack receives (settled, total) track counts, once before the
	// first track and after each settled one. May be nil.
	OnTrack func(done, total int)
}

// Orchestrator downloads every track of one mix, strictly sequentially.
//
// The mixer widget holds a single global "isolated track" state and one
// shared download trigger, so per-track work can never overlap: each track
// runs the full resolve → check → isolate → trigger → await → rename →
// de-isolate cycle before the next index starts.
type Orchestrator struct {
	sess   session.Session
	handle *mixer.Handle
	opts   Options
}

// NewOrchestrator creates an Orchestrator for one located mixer widget.
func NewOrchestrator(sess session.Session, handle *mixer.Handle, opts Options) *Orchestrator {
	if opts.Decider == nil {
		opts.Decider = DeciderFunc(func(string, int) Decision { return DecisionSkip })
	}
	if opts.SoloSettle <= 0 {
		opts.SoloSettle = 1500 * time.Millisecond
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 2 * time.Minute
	}
	return &Orchestrator{sess: sess, handle: handle, opts: opts}
}

// DownloadAllTracks processes every track in ascending mixer order and
// returns the per-track outcomes.
//
// Existing correctly-named files are never re-downloaded or deleted, which
// makes the pipeline safely resumable. A per-track timeout is resolved by
// the Decider and never aborts the remaining tracks; a missing required
// control or a cancelled context aborts the mix with the outcomes gathered
// so far.
func (o *Orchestrator) DownloadAllTracks(ctx context.Context) ([]model.TrackOutcome, error) {
	if err := ioutils.EnsureDir(o.opts.OutputDir); err != nil {
		return nil, err
	}
	if err := o.sess.SetDownloadDir(o.opts.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to route downloads: %w", err)
	}

	if o.opts.DisableClickTrack {
		if err := o.handle.ToggleClickTrack(); err != nil {
			o.progress(ProgressEvent{Message: fmt.Sprintf("Click track not muted: %v", err), Level: LevelWarning})
		} else {
			o.progress(ProgressEvent{Message: "Click track muted", Level: LevelVerbose})
		}
	}

	count, err := o.handle.TrackCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrControlMissing, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: mixer has no tracks", ErrControlMissing)
	}
	o.progress(ProgressEvent{Message: fmt.Sprintf("Mix %q: %d tracks", o.opts.MixName, count), Level: LevelInfo})
	o.trackDone(0, count)

	outcomes := make([]model.TrackOutcome, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome, err := o.processTrack(ctx, i)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
		o.trackDone(len(outcomes), count)
	}

	return outcomes, nil
}

// processTrack runs the per-track state machine for index i.
func (o *Orchestrator) processTrack(ctx context.Context, i int) (model.TrackOutcome, error) {
	// Resolve. The track list is re-queried here and again before every
	// interaction: soloing mutates the widget DOM and stale handles go
	// bad silently.
	name, err := o.handle.TrackName(i)
	if err != nil {
		return model.TrackOutcome{}, fmt.Errorf("%w: %v", ErrControlMissing, err)
	}

	fileName := model.TargetFileName(i, name)
	target := filepath.Join(o.opts.OutputDir, fileName)
	outcome := model.TrackOutcome{Index: i, DisplayName: name, FileName: fileName}

	// Idempotency check.
	if info, err := os.Stat(target); err == nil {
		o.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", fileName), Level: LevelVerbose})
		outcome.Status = model.StatusCompleted
		outcome.Skipped = true
		outcome.Bytes = info.Size()
		return outcome, nil
	}

	for attempt := 1; ; attempt++ {
		status, size, err := o.attemptDownload(ctx, i, name, target)
		if err != nil {
			return outcome, err
		}

		switch status {
		case model.StatusCompleted:
			outcome.Status = model.StatusCompleted
			outcome.Bytes = size
			o.progress(ProgressEvent{
				Message: fmt.Sprintf("Downloaded: %s (%s)", fileName, humanize.Bytes(uint64(size))),
				Level:   LevelSuccess,
			})
			return outcome, nil

		case model.StatusTimedOut:
			o.progress(ProgressEvent{
				Message: fmt.Sprintf("Timed out waiting for %q (attempt %d)", name, attempt),
				Level:   LevelWarning,
			})
			if o.opts.Decider.Decide(name, attempt) == DecisionSkip {
				o.progress(ProgressEvent{Message: fmt.Sprintf("Skipped: %s", name), Level: LevelWarning})
				outcome.Status = model.StatusFailed
				return outcome, nil
			}
			o.progress(ProgressEvent{Message: fmt.Sprintf("Retrying: %s", name), Level: LevelInfo})
		}
	}
}

// attemptDownload runs one isolate → trigger → await cycle for track i and
// resolves to StatusCompleted or StatusTimedOut. Errors are fatal for the
// mix.
func (o *Orchestrator) attemptDownload(ctx context.Context, i int, name, target string) (model.TrackStatus, int64, error) {
	soloed, err := o.isolate(ctx, i, name)
	if err != nil {
		return 0, 0, err
	}
	// The baseline "no track isolated" state must hold before the next
	// index regardless of how this attempt ends.
	defer o.deisolate(i, soloed)

	before := watch.Snapshot(o.opts.OutputDir)

	trigger, err := o.handle.DownloadControl()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrControlMissing, err)
	}
	_ = trigger.ScrollIntoView()
	if err := trigger.Click(); err != nil {
		return 0, 0, fmt.Errorf("%w: download trigger: %v", ErrControlMissing, err)
	}
	o.progress(ProgressEvent{Message: fmt.Sprintf("Download triggered for %q", name), Level: LevelVerbose})

	// The service sometimes raises a confirmation overlay on top of the
	// trigger; closing it is best-effort.
	if o.handle.DismissOverlay() {
		o.progress(ProgressEvent{Message: "Dismissed confirmation overlay", Level: LevelVerbose})
	}

	attempt := model.DownloadAttempt{
		TrackIndex:     i,
		TargetFileName: filepath.Base(target),
		Deadline:       time.Now().Add(o.opts.DownloadTimeout),
		Status:         model.StatusPending,
	}

	path, err := o.opts.Detector.AwaitNewFile(ctx, o.opts.OutputDir, before, o.opts.DownloadTimeout)
	if err != nil {
		if errors.Is(err, watch.ErrTimedOut) {
			attempt.Status = model.StatusTimedOut
			o.cleanPartials()
			return model.StatusTimedOut, 0, nil
		}
		return 0, 0, err
	}
	attempt.Status = model.StatusCompleted

	// A second overlay check catches dialogs that appeared mid-transfer.
	o.handle.DismissOverlay()

	if err := ioutils.MoveFile(path, target); err != nil {
		return 0, 0, fmt.Errorf("failed to place %s: %w", attempt.TargetFileName, err)
	}

	if o.opts.ModifyTags {
		tag := audio.StemTag{MixName: o.opts.MixName, TrackName: name, TrackNumber: i + 1}
		if err := audio.TagStem(target, tag); err != nil {
			o.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", attempt.TargetFileName, err), Level: LevelWarning})
		}
	}

	var size int64
	if info, err := os.Stat(target); err == nil {
		size = info.Size()
	}
	return model.StatusCompleted, size, nil
}

// isolate solos track i when its row carries a solo control. Rows without
// one are processed un-isolated (degraded mode, logged).
func (o *Orchestrator) isolate(ctx context.Context, i int, name string) (bool, error) {
	solo, err := o.handle.SoloControl(i)
	if err != nil {
		if errors.Is(err, mixer.ErrNoSolo) {
			o.progress(ProgressEvent{
				Message: fmt.Sprintf("No solo control for %q, downloading full mix state", name),
				Level:   LevelWarning,
			})
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrControlMissing, err)
	}

	_ = solo.ScrollIntoView()
	if err := solo.Click(); err != nil {
		return false, fmt.Errorf("%w: solo control: %v", ErrControlMissing, err)
	}
	o.progress(ProgressEvent{Message: fmt.Sprintf("Soloed %q", name), Level: LevelVerbose})

	// No signal exists for the mix engine applying isolation; the settle
	// delay is an empirical grace period.
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-time.After(o.opts.SoloSettle):
	}
	return true, nil
}

// deisolate restores the no-track-isolated baseline by toggling the same
// solo control again. Best-effort: the control is re-resolved because the
// isolate click may have re-rendered the widget.
func (o *Orchestrator) deisolate(i int, soloed bool) {
	if !soloed {
		return
	}
	solo, err := o.handle.SoloControl(i)
	if err != nil {
		o.progress(ProgressEvent{Message: fmt.Sprintf("Could not un-solo track %d: %v", i+1, err), Level: LevelWarning})
		return
	}
	if err := solo.Click(); err != nil {
		o.progress(ProgressEvent{Message: fmt.Sprintf("Could not un-solo track %d: %v", i+1, err), Level: LevelWarning})
	}
}

// cleanPartials removes in-progress artifacts left by a timed-out transfer
// so a retry starts from a clean directory.
func (o *Orchestrator) cleanPartials() {
	removed := ioutils.RemoveMatching(o.opts.OutputDir, watch.IsPartial)
	for _, name := range removed {
		o.progress(ProgressEvent{Message: fmt.Sprintf("Removed partial: %s", name), Level: LevelVerbose})
	}
}

func (o *Orchestrator) trackDone(done, total int) {
	if o.opts.OnTrack != nil {
		o.opts.OnTrack(done, total)
	}
}

func (o *Orchestrator) progress(event ProgressEvent) {
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(event)
	}
}
