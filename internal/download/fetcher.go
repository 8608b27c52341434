package download

import (
	"context"
	"errors"
	"fmt"
	"io"

	"feedscribe/internal/catalog"
	"feedscribe/internal/retry"
	"feedscribe/internal/services"
)

// Fetcher opens the media stream for a brief. size is -1 when unknown.
type Fetcher interface {
	Open(ctx context.Context, brief catalog.VideoBrief) (body io.ReadCloser, size int64, err error)
}

// MediaResolver turns a video page URL into stream URLs.
type MediaResolver interface {
	ResolveMedia(ctx context.Context, videoURL string) (catalog.Media, error)
}

// Streamer opens a media URL with whatever headers the host requires.
type Streamer interface {
	OpenStream(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error)
}

// ResolvingFetcher resolves each brief's canonical URL through a
// MediaResolver and streams the chosen variant.
type ResolvingFetcher struct {
	Resolver      MediaResolver
	Streamer      Streamer
	WithWatermark bool
}

// Open implements Fetcher.
func (f ResolvingFetcher) Open(ctx context.Context, brief catalog.VideoBrief) (io.ReadCloser, int64, error) {
	if f.Resolver == nil || f.Streamer == nil {
		return nil, 0, errors.New("resolving fetcher not configured")
	}
	media, err := f.Resolver.ResolveMedia(ctx, brief.CanonicalURL())
	if err != nil {
		return nil, 0, fmt.Errorf("resolve media: %w", err)
	}
	if media.IsImagePost() {
		return nil, 0, retry.Permanent(services.Wrap(services.ErrValidation, "download", "resolve media", "Image post; fetch it by URL to archive its images", nil))
	}
	streamURL := media.URL(f.WithWatermark)
	if streamURL == "" {
		return nil, 0, services.Wrap(services.ErrNotFound, "download", "resolve media", "Requested stream variant unavailable", nil)
	}
	return f.Streamer.OpenStream(ctx, streamURL)
}

// lengthReader fails with io.ErrUnexpectedEOF when the stream ends before the
// declared length.
type lengthReader struct {
	r         io.Reader
	remaining int64
}

func (l *lengthReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if errors.Is(err, io.EOF) && l.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}
