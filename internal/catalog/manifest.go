package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"feedscribe/internal/services"
	"feedscribe/internal/textutil"
)

// ManifestExtension is the file extension used for manifests.
const ManifestExtension = ".jsonl"

const maxRecordBytes = 1 << 20

// ManifestPath returns the manifest location for a creator label.
func ManifestPath(dir, label string) string {
	name := textutil.SanitizeFileName(label)
	if name == "" {
		name = "manifest"
	}
	return filepath.Join(dir, name+ManifestExtension)
}

// MalformedRecordError reports a manifest line that is not a valid record.
type MalformedRecordError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("manifest %s line %d: malformed record: %v", e.Path, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// ManifestWriter appends VideoBrief records to an NDJSON file. Each record is
// written with a single write call so a crash leaves at most one truncated
// trailing line.
type ManifestWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenManifest opens path for appending, creating parent directories.
func OpenManifest(path string) (*ManifestWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "harvest", "create manifest dir", "Could not create manifest directory", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "harvest", "open manifest", "Could not open manifest for writing", err)
	}
	return &ManifestWriter{path: path, file: file}, nil
}

// Path returns the manifest file path.
func (w *ManifestWriter) Path() string { return w.path }

// Append writes one record.
func (w *ManifestWriter) Append(brief VideoBrief) error {
	line, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("encode manifest record: %w", err)
	}
	line = append(line, '\n')
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("manifest writer closed")
	}
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("append manifest record: %w", err)
	}
	return nil
}

// Close flushes and closes the manifest file.
func (w *ManifestWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// ReadManifest loads every record from path in file order. Blank lines are
// skipped; the first undecodable line yields *MalformedRecordError.
func ReadManifest(path string) ([]VideoBrief, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "download", "read manifest", "Manifest not found; run harvest first", err)
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	briefs, err := DecodeManifest(file)
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		malformed.Path = path
		return nil, services.Wrap(services.ErrValidation, "download", "read manifest", "Manifest contains a malformed record", malformed)
	}
	return briefs, err
}

// DecodeManifest reads NDJSON records from r.
func DecodeManifest(r io.Reader) ([]VideoBrief, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var briefs []VideoBrief
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var brief VideoBrief
		if err := json.Unmarshal(raw, &brief); err != nil {
			return nil, &MalformedRecordError{Line: lineNo, Err: err}
		}
		if strings.TrimSpace(brief.ID) == "" {
			return nil, &MalformedRecordError{Line: lineNo, Err: errors.New("missing id")}
		}
		briefs = append(briefs, brief)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return briefs, nil
}
