package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"feedscribe/internal/services"
)

func TestRunBatchSkipsExistingReports(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "a.mp4")
	f.addVideo(t, "b.MP4")
	f.addVideo(t, "c.mov")
	f.addVideo(t, "notes.txt")
	if err := os.MkdirAll(f.cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.cfg.OutputDir, "b.md"), []byte("# b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	outcomes, err := f.pipeline.RunBatch(context.Background(), f.inputDir)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %+v", outcomes)
	}
	want := map[string]string{"a": StatusSuccess, "b": StatusSkipped, "c": StatusSuccess}
	for _, o := range outcomes {
		if want[o.ID] != o.Status {
			t.Fatalf("outcome %s = %s, want %s", o.ID, o.Status, want[o.ID])
		}
	}
	if len(f.trans.extracted) != 2 {
		t.Fatalf("expected 2 extractions, got %v", f.trans.extracted)
	}
}

func TestRunBatchContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.trans.extractErr = errors.New("ffmpeg exit 1")
	f.addVideo(t, "one.mp4")
	f.addVideo(t, "two.mp4")

	outcomes, err := f.pipeline.RunBatch(context.Background(), f.inputDir)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %+v", outcomes)
	}
	for _, o := range outcomes {
		if o.Status != StatusFail || o.Kind != "external_tool" || o.Reason == "" {
			t.Fatalf("unexpected outcome %+v", o)
		}
	}
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "one.mp4")
	f.addVideo(t, "two.mp4")
	ctx, cancel := context.WithCancel(context.Background())
	f.trans.extractErr = context.Canceled
	cancel()

	outcomes, err := f.pipeline.RunBatch(ctx, f.inputDir)
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected to stop after first item, got %+v", outcomes)
	}
}

func TestRunBatchMissingDirectory(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.RunBatch(context.Background(), filepath.Join(f.root, "nope"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIsSource(t *testing.T) {
	for name, want := range map[string]bool{"a.mp4": true, "b.MP4": true, "c.mov": true, "d.mkv": false, "e": false} {
		if got := IsSource(name); got != want {
			t.Fatalf("IsSource(%q) = %v", name, got)
		}
	}
}
