package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"feedscribe/internal/catalog"
	"feedscribe/internal/config"
	"feedscribe/internal/download"
	"feedscribe/internal/media"
	"feedscribe/internal/provider"
	"feedscribe/internal/services"
	"feedscribe/internal/testsupport"
)

type fakeResolver struct {
	userCalls []string
}

func (f *fakeResolver) ResolveUserID(_ context.Context, userURL string) (string, error) {
	f.userCalls = append(f.userCalls, userURL)
	return "MS4wLjABAAAA", nil
}

func (f *fakeResolver) CanonicalVideoURL(_ context.Context, text string) (string, error) {
	if _, id, ok := strings.Cut(text, "/video/"); ok {
		return catalog.CanonicalVideoURL(strings.TrimSpace(id)), nil
	}
	return catalog.CanonicalVideoURL("7300000000000000001"), nil
}

func (f *fakeResolver) VideoID(context.Context, string) (string, error) {
	return "7300000000000000001", nil
}

type fakeSource struct {
	pages []catalog.Page
	calls int
}

func (f *fakeSource) FetchPage(_ context.Context, _ string, _ int64, _ int) (catalog.Page, error) {
	if f.calls >= len(f.pages) {
		return catalog.Page{}, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

// fakeMedia resolves every id to a video with the same caption unless the
// id is listed in images.
type fakeMedia struct {
	images map[string][]string
}

func (f *fakeMedia) ResolveMedia(_ context.Context, videoURL string) (catalog.Media, error) {
	id := videoURL[strings.LastIndex(videoURL, "/")+1:]
	if urls, ok := f.images[id]; ok {
		return catalog.Media{ID: id, Platform: "douyin", Description: "album", ImageURLs: urls}, nil
	}
	return catalog.Media{
		ID:           id,
		Description:  "single clip",
		StreamURL:    "https://cdn/" + id + ".mp4",
		WatermarkURL: "https://cdn/" + id + "_wm.mp4",
	}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeStreamer struct {
	opened []string
}

func (f *fakeStreamer) OpenStream(_ context.Context, mediaURL string) (io.ReadCloser, int64, error) {
	f.opened = append(f.opened, mediaURL)
	if strings.HasSuffix(mediaURL, ".png") {
		return io.NopCloser(bytes.NewReader(pngHeader)), int64(len(pngHeader)), nil
	}
	return io.NopCloser(strings.NewReader("data")), 4, nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) ExtractAudio(_ context.Context, _ string, _ int, dest string) error {
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

func (fakeTranscriber) Transcribe(context.Context, string, string) (string, error) {
	return "今天分享三个技巧", nil
}

type fakeProvider struct{ name string }

func (f fakeProvider) Name() string { return f.name }

func (f fakeProvider) Summarize(context.Context, string) provider.Result {
	return provider.Result{Text: "三个技巧的总结", Attempts: 1}
}

func noSleep(context.Context, time.Duration) error { return nil }

type harness struct {
	cfg      *config.Config
	resolver *fakeResolver
	source   *fakeSource
	streamer *fakeStreamer
	media    *fakeMedia
	orch     *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cfg:      testsupport.NewConfig(t),
		resolver: &fakeResolver{},
		source: &fakeSource{pages: []catalog.Page{{
			Items: []catalog.RawItem{
				{ID: "1", Description: "first clip", CreateTime: 1700000000},
				{ID: "2", Description: "second clip", CreateTime: 1700000000000},
				{ID: "1", Description: "first clip again", CreateTime: 1700000000},
			},
			HasMore: false,
		}}},
		streamer: &fakeStreamer{},
		media:    &fakeMedia{},
	}
	orch, err := New(h.cfg,
		WithResolver(h.resolver),
		WithSource(h.source),
		WithMedia(h.media, h.streamer),
		WithTranscriber(fakeTranscriber{}),
		WithoutProbe(),
		WithProviderFactory(func(name string) (provider.Provider, error) { return fakeProvider{name: name}, nil }),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithSleeper(noSleep),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(orch.Close)
	h.orch = orch
	return h
}

func TestHarvestPersistsManifest(t *testing.T) {
	h := newHarness(t)

	result, err := h.orch.Harvest(context.Background(), HarvestRequest{
		Target:  "看看这个作者 https://v.douyin.com/abc123/ 复制打开",
		Label:   "creator",
		Persist: true,
	})
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(h.resolver.userCalls) != 1 || h.resolver.userCalls[0] != "https://v.douyin.com/abc123/" {
		t.Fatalf("resolver calls = %v", h.resolver.userCalls)
	}
	if result.UserID != "MS4wLjABAAAA" || len(result.Briefs) != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	briefs, err := catalog.ReadManifest(result.Manifest)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(briefs) != 2 || briefs[0].ID != "1" || briefs[1].CreatedAt != "20231114_221320" {
		t.Fatalf("manifest = %+v", briefs)
	}
}

func TestHarvestRawUserIDSkipsResolver(t *testing.T) {
	h := newHarness(t)

	result, err := h.orch.Harvest(context.Background(), HarvestRequest{Target: "MS4wLjABAAAAraw"})
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(h.resolver.userCalls) != 0 {
		t.Fatal("resolver should not run for a raw id")
	}
	if result.Label != "MS4wLjABAAAAraw" || result.Manifest != "" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHarvestRequiresTarget(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Harvest(context.Background(), HarvestRequest{Target: "  "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDownloadFromManifestIsIdempotent(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Harvest(context.Background(), HarvestRequest{Target: "uid", Label: "creator", Persist: true}); err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	first, err := h.orch.Download(context.Background(), DownloadRequest{Label: "creator"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if s := download.Summarize(first.Outcomes); s.Success != 2 {
		t.Fatalf("first run = %+v", first.Outcomes)
	}
	if first.Dir != filepath.Join(h.cfg.Paths.DownloadDir, "creator") {
		t.Fatalf("dir = %s", first.Dir)
	}

	second, err := h.orch.Download(context.Background(), DownloadRequest{Label: "creator"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if s := download.Summarize(second.Outcomes); s.Exists != 2 {
		t.Fatalf("second run = %+v", second.Outcomes)
	}
	if len(h.streamer.opened) != 2 {
		t.Fatalf("expected no network on second run, opened %v", h.streamer.opened)
	}
}

func TestDownloadRefusesWhenLocked(t *testing.T) {
	h := newHarness(t)
	if err := os.MkdirAll(h.cfg.Paths.DownloadDir, 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(filepath.Join(h.cfg.Paths.DownloadDir, LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: %v %v", locked, err)
	}
	defer held.Unlock()

	_, err = h.orch.Download(context.Background(), DownloadRequest{Label: "creator", Briefs: []catalog.VideoBrief{{ID: "1"}}})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestFetchOne(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.orch.FetchOne(context.Background(), "7.43 复制打开抖音 https://v.douyin.com/xyz/")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if outcome.Status != download.StatusSuccess {
		t.Fatalf("outcome = %+v", outcome)
	}
	want := filepath.Join(h.cfg.Paths.DownloadDir, "douyin_7300000000000000001_single_clip.mp4")
	if outcome.File != want {
		t.Fatalf("file = %s, want %s", outcome.File, want)
	}
	if len(h.streamer.opened) != 1 || h.streamer.opened[0] != "https://cdn/7300000000000000001.mp4" {
		t.Fatalf("opened = %v", h.streamer.opened)
	}
}

func TestFetchOneSameCaptionDistinctFiles(t *testing.T) {
	h := newHarness(t)

	first, err := h.orch.FetchOne(context.Background(), "https://www.douyin.com/video/111")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	second, err := h.orch.FetchOne(context.Background(), "https://www.douyin.com/video/222")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if first.Status != download.StatusSuccess || second.Status != download.StatusSuccess {
		t.Fatalf("outcomes = %+v, %+v", first, second)
	}
	if first.File == second.File {
		t.Fatalf("both posts written to %s", first.File)
	}
	if filepath.Base(second.File) != "douyin_222_single_clip.mp4" {
		t.Fatalf("second file = %s", second.File)
	}
	if len(h.streamer.opened) != 2 {
		t.Fatalf("opened = %v", h.streamer.opened)
	}
}

func TestFetchOneWatermarkVariant(t *testing.T) {
	h := newHarness(t)
	h.cfg.Download.WithWatermark = true

	outcome, err := h.orch.FetchOne(context.Background(), "https://www.douyin.com/video/333")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if outcome.Status != download.StatusSuccess || filepath.Base(outcome.File) != "douyin_333_watermark.mp4" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(h.streamer.opened) != 1 || h.streamer.opened[0] != "https://cdn/333_wm.mp4" {
		t.Fatalf("opened = %v", h.streamer.opened)
	}
}

func TestFetchOneImagePostArchive(t *testing.T) {
	h := newHarness(t)
	h.media.images = map[string][]string{"444": {"https://img/1.png", "https://img/2.png"}}

	outcome, err := h.orch.FetchOne(context.Background(), "https://www.douyin.com/video/444")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if outcome.Status != download.StatusSuccess {
		t.Fatalf("outcome = %+v", outcome)
	}
	if filepath.Base(outcome.File) != "douyin_444_images.zip" {
		t.Fatalf("file = %s", outcome.File)
	}

	zr, err := zip.OpenReader(outcome.File)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "douyin_444_1.png,douyin_444_2.png" {
		t.Fatalf("entries = %v", names)
	}

	entries, err := os.ReadDir(h.cfg.Paths.DownloadDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".images-") {
			t.Fatalf("staging dir left behind: %s", e.Name())
		}
	}
}

func TestDigestEndToEnd(t *testing.T) {
	h := newHarness(t)

	result, err := h.orch.Digest(context.Background(), DigestRequest{Target: "uid", Label: "creator"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(result.Downloads) != 2 || len(result.Analyses) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	for _, a := range result.Analyses {
		if a.Status != media.StatusSuccess {
			t.Fatalf("analysis outcome %+v", a)
		}
		data, err := os.ReadFile(a.File)
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		if !strings.Contains(string(data), "三个技巧的总结") {
			t.Fatalf("report missing analysis:\n%s", data)
		}
	}
	for _, d := range result.Downloads {
		testsupport.RequireMissing(t, d.File)
	}
}

func TestAnalyzeOneMissingPath(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.AnalyzeOne(context.Background(), "", AnalyzeOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeOneRetainSource(t *testing.T) {
	h := newHarness(t)
	source := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, source, 64)

	report, err := h.orch.AnalyzeOne(context.Background(), source, AnalyzeOptions{Provider: "gemini", RetainSource: true})
	if err != nil {
		t.Fatalf("AnalyzeOne: %v", err)
	}
	if report.Provider != "gemini" || report.Analysis != "三个技巧的总结" {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source should be retained: %v", err)
	}
}
