package audio

import (
	"strings"
	"testing"

	"github.com/mixpilot/mixer-downloader/internal/model"
)

func sampleOutcomes() []model.TrackOutcome {
	return []model.TrackOutcome{
		{Index: 0, DisplayName: "Drums", FileName: "01 - Drums.mp3", Status: model.StatusCompleted},
		{Index: 1, DisplayName: "Bass", FileName: "02 - Bass.mp3", Status: model.StatusFailed},
		{Index: 2, DisplayName: "Lead Vocal", FileName: "03 - Lead Vocal.mp3", Status: model.StatusCompleted},
	}
}

func TestCreatePlaylistSimple(t *testing.T) {
	content := NewPlaylistCreator(false).CreatePlaylist("My Song", sampleOutcomes())

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), content)
	}
	if lines[0] != "01 - Drums.mp3" || lines[1] != "03 - Lead Vocal.mp3" {
		t.Errorf("unexpected playlist lines: %v", lines)
	}
	if strings.Contains(content, "02 - Bass.mp3") {
		t.Error("failed track must not appear in playlist")
	}
}

func TestCreatePlaylistExtended(t *testing.T) {
	content := NewPlaylistCreator(true).CreatePlaylist("My Song", sampleOutcomes())

	if !strings.HasPrefix(content, "#EXTM3U\n") {
		t.Errorf("extended playlist must start with #EXTM3U: %q", content)
	}
	if !strings.Contains(content, "#EXTINF:-1,My Song - Drums\n01 - Drums.mp3\n") {
		t.Errorf("missing EXTINF entry: %q", content)
	}
}

func TestPlaylistFileName(t *testing.T) {
	if got := PlaylistFileName("Song: Live/Acoustic"); got != "Song_ Live_Acoustic.m3u" {
		t.Errorf("PlaylistFileName = %q", got)
	}
}
