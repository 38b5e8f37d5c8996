package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fastDetector() Detector {
	return Detector{
		PollInterval: 5 * time.Millisecond,
		Grace:        10 * time.Millisecond,
	}
}

func TestIsPartial(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"track.mp3.crdownload", true},
		{"track.mp3.part", true},
		{"track.mp3.TMP", true},
		{"track.mp3", false},
		{"my.partition.mp3", false},
	}

	for _, tt := range tests {
		if got := IsPartial(tt.name); got != tt.want {
			t.Errorf("IsPartial(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSnapshotMissingDir(t *testing.T) {
	snap := Snapshot(filepath.Join(t.TempDir(), "does-not-exist"))
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %d entries", len(snap))
	}
}

func TestAwaitNewFileIgnoresPartialThenReturnsCompleted(t *testing.T) {
	dir := t.TempDir()
	before := Snapshot(dir)

	partial := filepath.Join(dir, "x.crdownload")
	final := filepath.Join(dir, "x.mp3")

	go func() {
		time.Sleep(10 * time.Millisecond)
		os.WriteFile(partial, []byte("partial"), 0644)
		time.Sleep(30 * time.Millisecond)
		os.Rename(partial, final)
	}()

	got, err := fastDetector().AwaitNewFile(context.Background(), dir, before, 2*time.Second)
	if err != nil {
		t.Fatalf("AwaitNewFile failed: %v", err)
	}
	if got != final {
		t.Errorf("AwaitNewFile = %q, want %q", got, final)
	}
}

func TestAwaitNewFileTimesOut(t *testing.T) {
	dir := t.TempDir()
	before := Snapshot(dir)

	// Only a partial ever appears.
	if err := os.WriteFile(filepath.Join(dir, "y.mp3.part"), []byte("p"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := fastDetector().AwaitNewFile(context.Background(), dir, before, 50*time.Millisecond)
	if !errors.Is(err, ErrTimedOut) {
		t.Errorf("expected ErrTimedOut, got %v", err)
	}
}

func TestAwaitNewFileIgnoresPreexisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.mp3"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	before := Snapshot(dir)

	go func() {
		time.Sleep(10 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "new.mp3"), []byte("new"), 0644)
	}()

	got, err := fastDetector().AwaitNewFile(context.Background(), dir, before, 2*time.Second)
	if err != nil {
		t.Fatalf("AwaitNewFile failed: %v", err)
	}
	if filepath.Base(got) != "new.mp3" {
		t.Errorf("AwaitNewFile = %q, want new.mp3", got)
	}
}

func TestAwaitNewFileMissingDirAtStart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	before := Snapshot(dir)

	go func() {
		time.Sleep(10 * time.Millisecond)
		os.MkdirAll(dir, 0755)
		os.WriteFile(filepath.Join(dir, "z.mp3"), []byte("z"), 0644)
	}()

	got, err := fastDetector().AwaitNewFile(context.Background(), dir, before, 2*time.Second)
	if err != nil {
		t.Fatalf("AwaitNewFile failed: %v", err)
	}
	if filepath.Base(got) != "z.mp3" {
		t.Errorf("AwaitNewFile = %q, want z.mp3", got)
	}
}

func TestAwaitNewFileCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastDetector().AwaitNewFile(ctx, dir, Snapshot(dir), time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
