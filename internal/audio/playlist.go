package audio

import (
	"fmt"
	"strings"

	"github.com/mixpilot/mixer-downloader/internal/model"
)

// PlaylistCreator generates M3U playlists for a mix's downloaded stems.
//
// Track paths in the playlist are relative (just the filename), assuming
// the playlist file sits in the same directory as the stems.
type PlaylistCreator struct {
	extended bool // include #EXTINF lines
}

// NewPlaylistCreator creates a PlaylistCreator.
func NewPlaylistCreator(extended bool) *PlaylistCreator {
	return &PlaylistCreator{extended: extended}
}

// CreatePlaylist renders playlist content for the completed tracks of a
// mix. Failed and skipped-as-failed tracks are omitted so the playlist
// only references files that exist.
func (p *PlaylistCreator) CreatePlaylist(mixName string, outcomes []model.TrackOutcome) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, outcome := range outcomes {
		if outcome.Status != model.StatusCompleted {
			continue
		}
		if p.extended {
			// Stem durations are not known; -1 is the M3U convention
			// for "unspecified".
			sb.WriteString(fmt.Sprintf("#EXTINF:-1,%s - %s\n", mixName, outcome.DisplayName))
		}
		sb.WriteString(outcome.FileName + "\n")
	}

	return sb.String()
}

// PlaylistFileName returns the playlist filename for a mix.
func PlaylistFileName(mixName string) string {
	return model.SanitizeTrackName(mixName) + ".m3u"
}
