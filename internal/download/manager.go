package download

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mixpilot/mixer-downloader/internal/audio"
	"github.com/mixpilot/mixer-downloader/internal/auth"
	"github.com/mixpilot/mixer-downloader/internal/catalog"
	"github.com/mixpilot/mixer-downloader/internal/config"
	"github.com/mixpilot/mixer-downloader/internal/mixer"
	"github.com/mixpilot/mixer-downloader/internal/model"
	"github.com/mixpilot/mixer-downloader/internal/session"
	"github.com/mixpilot/mixer-downloader/internal/watch"
)

// Manager ties the whole pipeline together: browser session, sign-in,
// catalog, widget location and the per-track orchestrator. One Manager
// drives one browser session; both the CLI and the TUI build on it.
type Manager struct {
	settings   *config.Settings
	onProgress func(ProgressEvent)

	// launch is swappable for tests.
	launch func(session.Options) (session.Session, error)

	sess session.Session

	doneTracks  atomic.Int32
	totalTracks atomic.Int32
}

// NewManager creates a Manager. onProgress may be nil.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	return &Manager{
		settings:   settings,
		onProgress: onProgress,
		launch:     session.Launch,
	}
}

// Initialize launches the browser and signs in to the service. Call Close
// when done with the Manager.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: "Launching browser...", Level: LevelVerbose})
	sess, err := m.launch(session.Options{
		Headless:    m.settings.Headless,
		UserDataDir: m.settings.BrowserDataDir,
		PageTimeout: time.Duration(m.settings.PageTimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}
	m.sess = sess

	m.progress(ProgressEvent{Message: "Signing in...", Level: LevelVerbose})
	pageTimeout := time.Duration(m.settings.PageTimeoutSec) * time.Second
	if err := auth.Login(sess, m.settings.BaseURL, m.settings.Email, m.settings.Password, pageTimeout); err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: "Signed in", Level: LevelInfo})
	return nil
}

// FetchCatalog scrapes the purchased-mixes listing.
func (m *Manager) FetchCatalog() ([]model.CatalogEntry, error) {
	if m.sess == nil {
		return nil, fmt.Errorf("manager not initialized")
	}

	m.progress(ProgressEvent{Message: "Fetching purchased mixes...", Level: LevelInfo})
	entries, err := catalog.New(m.sess).Scrape(m.settings.CatalogURL())
	if err != nil {
		return nil, err
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d purchased mixes", len(entries)), Level: LevelInfo})
	return entries, nil
}

// ResolveMixURL turns a catalog entry's link target into an absolute URL.
func (m *Manager) ResolveMixURL(entry model.CatalogEntry) string {
	base, err := url.Parse(m.settings.BaseURL)
	if err != nil {
		return entry.Key
	}
	ref, err := url.Parse(entry.Key)
	if err != nil {
		return entry.Key
	}
	return base.ResolveReference(ref).String()
}

// DownloadMix navigates to a mix page, locates its mixer widget and
// downloads every stem into a per-mix directory under DownloadsPath.
func (m *Manager) DownloadMix(ctx context.Context, mixURL, mixName string, decider Decider) ([]model.TrackOutcome, error) {
	if m.sess == nil {
		return nil, fmt.Errorf("manager not initialized")
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Opening %s", mixURL), Level: LevelInfo})
	if err := m.sess.Navigate(mixURL); err != nil {
		return nil, err
	}

	outputDir := filepath.Join(m.settings.DownloadsPath, model.SanitizeTrackName(mixName))

	locator := mixer.NewLocator(m.sess)
	locator.DiagnosticsDir = filepath.Join(outputDir, "diagnostics")
	m.progress(ProgressEvent{Message: "Locating mixer widget...", Level: LevelVerbose})
	handle, err := locator.Locate(time.Duration(m.settings.MixerTimeoutSec) * time.Second)
	if err != nil {
		return nil, err
	}

	orchestrator := NewOrchestrator(m.sess, handle, Options{
		MixName:           mixName,
		OutputDir:         outputDir,
		SoloSettle:        time.Duration(m.settings.SoloSettleMS) * time.Millisecond,
		DownloadTimeout:   time.Duration(m.settings.DownloadTimeoutSec) * time.Second,
		DisableClickTrack: !m.settings.EnableClickTrack,
		ModifyTags:        m.settings.ModifyTags,
		Detector: watch.Detector{
			PollInterval: time.Duration(m.settings.PollIntervalMS) * time.Millisecond,
			Grace:        time.Duration(m.settings.GraceIntervalMS) * time.Millisecond,
		},
		Decider:    decider,
		OnProgress: m.onProgress,
		OnTrack: func(done, total int) {
			m.doneTracks.Store(int32(done))
			m.totalTracks.Store(int32(total))
		},
	})

	outcomes, err := orchestrator.DownloadAllTracks(ctx)
	if err != nil {
		return outcomes, err
	}

	if m.settings.CreatePlaylist {
		if err := m.writePlaylist(outputDir, mixName, outcomes); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		}
	}

	m.summarize(mixName, outcomes)
	return outcomes, nil
}

// GetProgress reports the settled and total track counts of the mix
// currently downloading. Safe to call from another goroutine.
func (m *Manager) GetProgress() (done, total int32) {
	return m.doneTracks.Load(), m.totalTracks.Load()
}

// Close shuts the browser down.
func (m *Manager) Close() error {
	if m.sess == nil {
		return nil
	}
	return m.sess.Close()
}

func (m *Manager) writePlaylist(outputDir, mixName string, outcomes []model.TrackOutcome) error {
	content := audio.NewPlaylistCreator(m.settings.M3UExtended).CreatePlaylist(mixName, outcomes)
	path := filepath.Join(outputDir, audio.PlaylistFileName(mixName))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist: %s", filepath.Base(path)), Level: LevelInfo})
	return nil
}

func (m *Manager) summarize(mixName string, outcomes []model.TrackOutcome) {
	var completed, skipped, failed int
	var bytes int64
	for _, out := range outcomes {
		switch {
		case out.Skipped:
			skipped++
		case out.Status == model.StatusCompleted:
			completed++
			bytes += out.Bytes
		default:
			failed++
		}
	}

	level := LevelSuccess
	if failed > 0 {
		level = LevelWarning
	}
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("%s: %d downloaded (%s), %d already present, %d failed",
			mixName, completed, humanize.Bytes(uint64(bytes)), skipped, failed),
		Level: level,
	})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
