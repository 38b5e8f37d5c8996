package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds all configuration options.
type Settings struct {
	// Account credentials for the backing-track service.
	Email    string `json:"email"`
	Password string `json:"password"`

	// LastURL is the mix page most recently selected; rewritten after each
	// successful selection so the next run can offer it as a default.
	LastURL string `json:"last_url"`

	// EnableClickTrack keeps the click/intro track audible in the mix.
	// When false, its mute control is toggled once before per-track
	// processing begins.
	EnableClickTrack bool `json:"enable_click_track"`

	// Download settings
	DownloadsPath  string `json:"downloads_path"`
	Headless       bool   `json:"headless"`
	BrowserDataDir string `json:"browser_data_dir"`

	// Timeouts and intervals.
	PageTimeoutSec     int `json:"page_timeout_sec"`
	MixerTimeoutSec    int `json:"mixer_timeout_sec"`
	DownloadTimeoutSec int `json:"download_timeout_sec"`
	SoloSettleMS       int `json:"solo_settle_ms"`
	PollIntervalMS     int `json:"poll_interval_ms"`
	GraceIntervalMS    int `json:"grace_interval_ms"`

	// Post-processing
	ModifyTags     bool `json:"modify_tags"`
	CreatePlaylist bool `json:"create_playlist"`
	M3UExtended    bool `json:"m3u_extended"`

	// Service endpoints. BaseURL is the site root; CatalogPath is the
	// purchased-files listing relative to it.
	BaseURL     string `json:"base_url"`
	CatalogPath string `json:"catalog_path"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		EnableClickTrack: false,

		DownloadsPath:  filepath.Join(homeDir, "Music", "Mixes"),
		Headless:       true,
		BrowserDataDir: filepath.Join(homeDir, ".mixer-downloader", "browser"),

		PageTimeoutSec:     30,
		MixerTimeoutSec:    45,
		DownloadTimeoutSec: 120,
		SoloSettleMS:       1500,
		PollIntervalMS:     500,
		GraceIntervalMS:    1000,

		ModifyTags:     true,
		CreatePlaylist: false,
		M3UExtended:    true,

		BaseURL:     "https://www.custom-mix.example",
		CatalogPath: "/my/files.html",
	}
}

// Load reads settings from a JSON file.
//
// A missing or unreadable file is not fatal: defaults are returned along
// with the error so callers can log the problem and carry on.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return DefaultSettings(), err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns the default location of the settings file.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".mixer-downloader", "settings.json")
}

// CatalogURL returns the absolute URL of the purchased-files listing.
func (s *Settings) CatalogURL() string {
	return s.BaseURL + s.CatalogPath
}
