package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if settings.DownloadTimeoutSec != DefaultSettings().DownloadTimeoutSec {
		t.Errorf("expected default download timeout, got %d", settings.DownloadTimeoutSec)
	}
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err == nil {
		t.Error("expected an error for corrupt settings")
	}
	if settings == nil {
		t.Fatal("settings must be usable even when the file is corrupt")
	}
	if settings.BaseURL != DefaultSettings().BaseURL {
		t.Errorf("expected default base URL, got %q", settings.BaseURL)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")

	settings := DefaultSettings()
	settings.Email = "singer@example.com"
	settings.LastURL = "https://www.custom-mix.example/mix/123.html"
	settings.EnableClickTrack = true
	settings.DownloadTimeoutSec = 300

	if err := settings.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Email != settings.Email {
		t.Errorf("Email = %q, want %q", loaded.Email, settings.Email)
	}
	if loaded.LastURL != settings.LastURL {
		t.Errorf("LastURL = %q, want %q", loaded.LastURL, settings.LastURL)
	}
	if !loaded.EnableClickTrack {
		t.Error("EnableClickTrack not persisted")
	}
	if loaded.DownloadTimeoutSec != 300 {
		t.Errorf("DownloadTimeoutSec = %d, want 300", loaded.DownloadTimeoutSec)
	}
}

func TestCatalogURL(t *testing.T) {
	s := DefaultSettings()
	s.BaseURL = "https://example.com"
	s.CatalogPath = "/my/files.html"
	if got := s.CatalogURL(); got != "https://example.com/my/files.html" {
		t.Errorf("CatalogURL() = %q", got)
	}
}
