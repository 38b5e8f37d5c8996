package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mixpilot/mixer-downloader/internal/mixer"
	"github.com/mixpilot/mixer-downloader/internal/model"
	"github.com/mixpilot/mixer-downloader/internal/session/sessiontest"
	"github.com/mixpilot/mixer-downloader/internal/watch"
)

// Selectors matching the widget markup the mixer package drives.
const (
	trackSel    = `#mixer .mixer__track`
	captionSel  = `.mixer__track-caption`
	soloSel     = `button.track__solo`
	downloadSel = `a.mixer__download`
)

// fixture wires a fake mixer page to a temp download directory and records
// the interaction order.
type fixture struct {
	t      *testing.T
	ctx    *sessiontest.FakeContext
	sess   *sessiontest.FakeSession
	dir    string
	events []string
	soloed int
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    sessiontest.NewFakeContext(),
		sess:   sessiontest.NewFakeSession(),
		dir:    t.TempDir(),
		soloed: -1,
	}

	rows := make([]*sessiontest.FakeElement, len(names))
	for i, name := range names {
		i := i
		solo := &sessiontest.FakeElement{}
		solo.OnClick = func() error {
			if f.soloed == i {
				f.soloed = -1
				f.events = append(f.events, fmt.Sprintf("unsolo %d", i))
			} else {
				f.soloed = i
				f.events = append(f.events, fmt.Sprintf("solo %d", i))
			}
			return nil
		}
		rows[i] = &sessiontest.FakeElement{
			Children: map[string][]*sessiontest.FakeElement{
				captionSel: {{TextValue: name}},
				soloSel:    {solo},
			},
		}
	}
	f.ctx.Set(trackSel, rows...)
	return f
}

// setTrigger installs the shared download control. onClick simulates the
// browser starting a transfer, typically by writing a file into f.dir.
func (f *fixture) setTrigger(onClick func() error) {
	f.ctx.Set(downloadSel, &sessiontest.FakeElement{OnClick: func() error {
		f.events = append(f.events, "trigger")
		if onClick != nil {
			return onClick()
		}
		return nil
	}})
}

func (f *fixture) writeFile(name string) error {
	return os.WriteFile(filepath.Join(f.dir, name), []byte("audio"), 0o644)
}

func (f *fixture) orchestrator(opts Options) *Orchestrator {
	opts.MixName = "My Song"
	opts.OutputDir = f.dir
	if opts.SoloSettle == 0 {
		opts.SoloSettle = time.Millisecond
	}
	if opts.DownloadTimeout == 0 {
		opts.DownloadTimeout = 60 * time.Millisecond
	}
	opts.Detector = watch.Detector{PollInterval: 2 * time.Millisecond, Grace: 5 * time.Millisecond}
	return NewOrchestrator(f.sess, mixer.NewHandle(f.ctx), opts)
}

func TestDownloadAllTracksSequential(t *testing.T) {
	f := newFixture(t, "Drums", "Bass")
	f.setTrigger(func() error { return f.writeFile("stem.mp3") })

	outcomes, err := f.orchestrator(Options{}).DownloadAllTracks(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllTracks: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	want := []struct {
		index    int
		fileName string
	}{
		{0, "01 - Drums.mp3"},
		{1, "02 - Bass.mp3"},
	}
	for i, w := range want {
		out := outcomes[i]
		if out.Index != w.index || out.FileName != w.fileName || out.Status != model.StatusCompleted {
			t.Errorf("outcome %d = %+v", i, out)
		}
		if _, err := os.Stat(filepath.Join(f.dir, w.fileName)); err != nil {
			t.Errorf("missing output file %s: %v", w.fileName, err)
		}
	}

	wantEvents := []string{"solo 0", "trigger", "unsolo 0", "solo 1", "trigger", "unsolo 1"}
	if len(f.events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", f.events, wantEvents)
	}
	for i := range wantEvents {
		if f.events[i] != wantEvents[i] {
			t.Fatalf("events = %v, want %v", f.events, wantEvents)
		}
	}
	if f.sess.DownloadDir != f.dir {
		t.Errorf("download dir = %q, want %q", f.sess.DownloadDir, f.dir)
	}
}

func TestDownloadAllTracksSkipsExisting(t *testing.T) {
	f := newFixture(t, "Drums", "Bass")
	f.setTrigger(func() error { return f.writeFile("stem.mp3") })
	if err := f.writeFile("01 - Drums.mp3"); err != nil {
		t.Fatal(err)
	}

	outcomes, err := f.orchestrator(Options{}).DownloadAllTracks(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllTracks: %v", err)
	}

	if !outcomes[0].Skipped || outcomes[0].Status != model.StatusCompleted {
		t.Errorf("existing track outcome = %+v, want skipped completed", outcomes[0])
	}
	if outcomes[1].Skipped {
		t.Errorf("fresh track must not be skipped: %+v", outcomes[1])
	}

	// The mixer must not have been touched for the existing track.
	wantEvents := []string{"solo 1", "trigger", "unsolo 1"}
	if len(f.events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", f.events, wantEvents)
	}
}

func TestDownloadTimeoutThenRetry(t *testing.T) {
	f := newFixture(t, "Drums")
	triggers := 0
	f.setTrigger(func() error {
		triggers++
		if triggers == 1 {
			// Only a partial ever appears on the first attempt.
			return f.writeFile("stem.mp3.crdownload")
		}
		return f.writeFile("stem.mp3")
	})

	var decided []int
	opts := Options{Decider: DeciderFunc(func(name string, attempt int) Decision {
		decided = append(decided, attempt)
		return DecisionRetry
	})}

	outcomes, err := f.orchestrator(opts).DownloadAllTracks(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllTracks: %v", err)
	}
	if outcomes[0].Status != model.StatusCompleted {
		t.Fatalf("outcome = %+v, want completed after retry", outcomes[0])
	}
	if len(decided) != 1 || decided[0] != 1 {
		t.Errorf("decider calls = %v, want one call with attempt 1", decided)
	}

	// The full cycle repeats for the retry, and the partial is gone.
	wantEvents := []string{"solo 0", "trigger", "unsolo 0", "solo 0", "trigger", "unsolo 0"}
	if len(f.events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", f.events, wantEvents)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "stem.mp3.crdownload")); !os.IsNotExist(err) {
		t.Error("partial file left behind after retry")
	}
	if _, err := os.Stat(filepath.Join(f.dir, "01 - Drums.mp3")); err != nil {
		t.Errorf("missing output file: %v", err)
	}
}

func TestDownloadTimeoutThenSkip(t *testing.T) {
	f := newFixture(t, "Drums", "Bass")
	f.setTrigger(func() error {
		if f.soloed == 0 {
			return nil // track 0 never delivers
		}
		return f.writeFile("stem.mp3")
	})

	opts := Options{Decider: DeciderFunc(func(string, int) Decision { return DecisionSkip })}
	outcomes, err := f.orchestrator(opts).DownloadAllTracks(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllTracks: %v", err)
	}

	if outcomes[0].Status != model.StatusFailed {
		t.Errorf("skipped track outcome = %+v, want failed", outcomes[0])
	}
	if outcomes[1].Status != model.StatusCompleted {
		t.Errorf("remaining track outcome = %+v, want completed", outcomes[1])
	}
	if f.soloed != -1 {
		t.Errorf("track %d still soloed after skip", f.soloed)
	}
}

func TestDownloadMissingTrigger(t *testing.T) {
	f := newFixture(t, "Drums")

	_, err := f.orchestrator(Options{}).DownloadAllTracks(context.Background())
	if !errors.Is(err, ErrControlMissing) {
		t.Fatalf("err = %v, want ErrControlMissing", err)
	}
}

func TestDownloadWithoutSoloControl(t *testing.T) {
	f := newFixture(t, "Drums")
	// Replace the row with one carrying no solo control.
	f.ctx.Set(trackSel, &sessiontest.FakeElement{
		Children: map[string][]*sessiontest.FakeElement{
			captionSel: {{TextValue: "Drums"}},
		},
	})
	f.setTrigger(func() error { return f.writeFile("stem.mp3") })

	var warnings []string
	opts := Options{OnProgress: func(e ProgressEvent) {
		if e.Level == LevelWarning {
			warnings = append(warnings, e.Message)
		}
	}}

	outcomes, err := f.orchestrator(opts).DownloadAllTracks(context.Background())
	if err != nil {
		t.Fatalf("DownloadAllTracks: %v", err)
	}
	if outcomes[0].Status != model.StatusCompleted {
		t.Errorf("outcome = %+v, want completed in degraded mode", outcomes[0])
	}
	if len(warnings) == 0 {
		t.Error("expected a degraded-mode warning")
	}
}

func TestDownloadCancelledContext(t *testing.T) {
	f := newFixture(t, "Drums")
	f.setTrigger(func() error { return f.writeFile("stem.mp3") })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := f.orchestrator(Options{}).DownloadAllTracks(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("got %d outcomes before cancellation check, want 0", len(outcomes))
	}
}
