package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"feedscribe/internal/catalog"
	"feedscribe/internal/fileutil"
	"feedscribe/internal/logging"
	"feedscribe/internal/services"
)

// DownloadImages fetches every image of an image post and stores them as one
// zip archive at target. An existing archive is reported as exists. The
// whole post is retried under the fetch policy.
func (d *Downloader) DownloadImages(ctx context.Context, media catalog.Media, streamer Streamer, withWatermark bool, target string) Outcome {
	ctx = services.WithItemID(services.WithStage(ctx, "download"), media.ID)
	logger := logging.WithContext(ctx, d.logger)
	urls := media.Images(withWatermark)
	if len(urls) == 0 {
		return failure(media.ID, services.Wrap(services.ErrNotFound, "download", "resolve media", "Requested image variant unavailable", nil))
	}
	if streamer == nil {
		return failure(media.ID, services.Wrap(services.ErrConfiguration, "download", "archive images", "No streamer configured", nil))
	}
	logger.Debug("image post", logging.Int("images", len(urls)))
	return d.process(ctx, logger, media.ID, target, false, func(ctx context.Context, target string) (int64, error) {
		return archiveImages(ctx, streamer, media, urls, withWatermark, target)
	})
}

type stagedImage struct {
	path string
	name string
}

// archiveImages streams each image into a staging directory next to target,
// then zips them through fileutil.StreamToFile so target only appears once
// the archive is complete. The staging directory is always removed.
func archiveImages(ctx context.Context, streamer Streamer, media catalog.Media, urls []string, withWatermark bool, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "download", "archive images", "create destination", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(target), ".images-*")
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "download", "archive images", "create staging dir", err)
	}
	defer os.RemoveAll(staging)

	images := make([]stagedImage, 0, len(urls))
	for i, u := range urls {
		path := filepath.Join(staging, fmt.Sprintf("%03d", i+1))
		if err := stageImage(ctx, streamer, u, path); err != nil {
			return 0, fmt.Errorf("image %d of %d: %w", i+1, len(urls), err)
		}
		images = append(images, stagedImage{path: path, name: media.ImageName(i+1, withWatermark, sniffImageExt(path))})
	}

	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeZip(pw, images))
	}()
	written, err := fileutil.StreamToFile(target, pr, 0o644)
	_ = pr.CloseWithError(err)
	<-done
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return written, ctxErr
		}
		return written, fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	return written, nil
}

func stageImage(ctx context.Context, streamer Streamer, url, path string) error {
	body, _, err := streamer.OpenStream(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if _, err := fileutil.StreamToFile(path, body, 0o644); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// writeZip stores the images uncompressed; they are already compressed.
func writeZip(w io.Writer, images []stagedImage) error {
	zw := zip.NewWriter(w)
	for _, img := range images {
		entry, err := zw.CreateHeader(&zip.FileHeader{Name: img.name, Method: zip.Store})
		if err != nil {
			return err
		}
		f, err := os.Open(img.path)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

// sniffImageExt returns the image subtype ("jpeg", "webp", ...) detected from
// the file header, defaulting to jpeg.
func sniffImageExt(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "jpeg"
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	ctype := http.DetectContentType(head[:n])
	if sub, ok := strings.CutPrefix(ctype, "image/"); ok {
		if i := strings.IndexByte(sub, ';'); i >= 0 {
			sub = sub[:i]
		}
		return strings.TrimSpace(sub)
	}
	return "jpeg"
}
