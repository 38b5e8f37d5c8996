package download

import (
	"context"
	"testing"

	"github.com/mixpilot/mixer-downloader/internal/config"
	"github.com/mixpilot/mixer-downloader/internal/model"
	"github.com/mixpilot/mixer-downloader/internal/session"
	"github.com/mixpilot/mixer-downloader/internal/session/sessiontest"
)

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.BaseURL = "https://mixes.example"
	s.CatalogPath = "/my/files.html"
	return s
}

func TestResolveMixURL(t *testing.T) {
	m := NewManager(testSettings(), nil)

	tests := []struct {
		key  string
		want string
	}{
		{"/songs/my-song.html", "https://mixes.example/songs/my-song.html"},
		{"songs/my-song.html", "https://mixes.example/songs/my-song.html"},
		{"https://other.example/mix.html", "https://other.example/mix.html"},
	}
	for _, tt := range tests {
		if got := m.ResolveMixURL(model.CatalogEntry{Key: tt.key}); got != tt.want {
			t.Errorf("ResolveMixURL(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestManagerInitializeSignsIn(t *testing.T) {
	sess := sessiontest.NewFakeSession()
	// A persisted profile lands straight on the account page.
	sess.TopContext.Set(`.my-account`, &sessiontest.FakeElement{})

	m := NewManager(testSettings(), nil)
	m.launch = func(opts session.Options) (session.Session, error) {
		if !opts.Headless {
			t.Error("expected headless launch from default settings")
		}
		return sess, nil
	}

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if len(sess.Navigated) == 0 || sess.Navigated[0] != "https://mixes.example/my/login.html" {
		t.Errorf("navigated to %v, want login page first", sess.Navigated)
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !sess.Closed {
		t.Error("Close must shut the session down")
	}
}

func TestManagerRequiresInitialize(t *testing.T) {
	m := NewManager(testSettings(), nil)
	if _, err := m.FetchCatalog(); err == nil {
		t.Error("FetchCatalog before Initialize must fail")
	}
	if _, err := m.DownloadMix(context.Background(), "https://mixes.example/x", "X", nil); err == nil {
		t.Error("DownloadMix before Initialize must fail")
	}
}
