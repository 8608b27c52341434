package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feedscribe/internal/services"
)

func TestManifestRoundTripPreservesOrder(t *testing.T) {
	path := ManifestPath(t.TempDir(), "creator one")
	if filepath.Base(path) != "creator_one.jsonl" {
		t.Fatalf("unexpected manifest name %q", filepath.Base(path))
	}

	writer, err := OpenManifest(path)
	if err != nil {
		t.Fatalf("OpenManifest: %v", err)
	}
	want := []VideoBrief{
		{ID: "3", Description: "third", CreatedAt: "20240101_000000"},
		{ID: "1", Description: "first", CreatedAt: UnknownTimestamp},
	}
	for _, b := range want {
		if err := writer.Append(b); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadManifestReportsTruncatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.jsonl")
	content := `{"id":"1","description":"a","created_at":"unknown"}` + "\n\n" + `{"id":"2","descr`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadManifest(path)
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedRecordError, got %v", err)
	}
	if malformed.Line != 3 {
		t.Fatalf("line = %d, want 3", malformed.Line)
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "absent.jsonl"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecodeManifestRejectsMissingID(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(`{"description":"no id"}` + "\n"))
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) || malformed.Line != 1 {
		t.Fatalf("expected malformed line 1, got %v", err)
	}
}
