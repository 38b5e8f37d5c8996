package mixer

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/mixpilot/mixer-downloader/internal/session"
)

// CaptureSnapshots writes the top-level document and every reachable nested
// context's markup to dir for postmortem inspection. Contexts that refuse
// access are skipped; a partial capture is better than none.
func CaptureSnapshots(sess session.Session, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var g errgroup.Group

	top := sess.Top()
	g.Go(func() error {
		return writeSnapshot(top, filepath.Join(dir, "page.html"))
	})

	frames, err := sess.Frames()
	if err == nil {
		for i, frame := range frames {
			i, frame := i, frame
			g.Go(func() error {
				// Frame snapshots are best-effort.
				_ = writeSnapshot(frame, filepath.Join(dir, fmt.Sprintf("frame-%d.html", i)))
				return nil
			})
		}
	}

	return g.Wait()
}

func writeSnapshot(ctx session.Context, path string) error {
	html, err := ctx.HTML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0644)
}
