package audio

import (
	"fmt"
	"os"

	"github.com/bogem/id3v2"
)

// StemTag describes the ID3 metadata written onto one downloaded stem.
type StemTag struct {
	// MixName becomes the album title, grouping a mix's stems together
	// in players.
	MixName string

	// TrackName becomes the title.
	TrackName string

	// TrackNumber is the 1-based position in mixer order.
	TrackNumber int
}

// TagStem writes ID3 tags to the stem file at path.
//
// The service serves stems with no usable metadata, so existing frames for
// title, album and track number are overwritten; anything else on the file
// is left alone.
func TagStem(path string, meta StemTag) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		// Files without a tag header get a fresh one.
		if os.IsNotExist(err) {
			tag = id3v2.NewEmptyTag()
		} else {
			return err
		}
	}
	defer tag.Close()

	tag.SetTitle(meta.TrackName)
	tag.SetAlbum(meta.MixName)
	tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, fmt.Sprintf("%d", meta.TrackNumber))

	return tag.Save()
}
