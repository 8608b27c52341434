package catalog

import (
	"strconv"
	"strings"
	"time"

	"feedscribe/internal/textutil"
)

// TimestampLayout formats normalized creation dates.
const TimestampLayout = "20060102_150405"

// UnknownTimestamp stands in for a missing creation time.
const UnknownTimestamp = "unknown"

// MediaExtension is appended to downloaded video file names.
const MediaExtension = ".mp4"

// millisecondThreshold separates millisecond epochs from second epochs.
const millisecondThreshold = 1_000_000_000_000

// VideoBrief is the manifest record for one video.
type VideoBrief struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Title       string `json:"title,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RawItem is a feed entry as reported by a Source, before normalization.
type RawItem struct {
	ID          string
	Description string
	Title       string
	CreateTime  int64
}

// NormalizeEpoch converts an epoch in seconds or milliseconds to a time.
// Values at or above 1e12 are treated as milliseconds. ok is false for
// non-positive values.
func NormalizeEpoch(epoch int64) (time.Time, bool) {
	if epoch <= 0 {
		return time.Time{}, false
	}
	if epoch >= millisecondThreshold {
		epoch /= 1000
	}
	return time.Unix(epoch, 0), true
}

// FormatTimestamp renders epoch as TimestampLayout in loc, or UnknownTimestamp.
func FormatTimestamp(epoch int64, loc *time.Location) string {
	ts, ok := NormalizeEpoch(epoch)
	if !ok {
		return UnknownTimestamp
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(TimestampLayout)
}

// Normalize builds a VideoBrief from a raw feed item.
func Normalize(item RawItem, loc *time.Location) VideoBrief {
	return VideoBrief{
		ID:          strings.TrimSpace(item.ID),
		Description: strings.TrimSpace(item.Description),
		Title:       strings.TrimSpace(item.Title),
		CreatedAt:   FormatTimestamp(item.CreateTime, loc),
	}
}

// FileName returns the deterministic media file name for the brief: the
// sanitized description (or id when empty), the creation stamp, and
// MediaExtension.
func (b VideoBrief) FileName() string {
	stamp := strings.TrimSpace(b.CreatedAt)
	if stamp == "" {
		stamp = UnknownTimestamp
	}
	suffix := "_" + stamp + MediaExtension
	base := textutil.SanitizeOr(b.Description, b.ID)
	return textutil.TruncateBytes(base, textutil.MaxNameBytes-len(suffix)) + suffix
}

// CanonicalURL returns the public page URL for the video.
func (b VideoBrief) CanonicalURL() string {
	return CanonicalVideoURL(b.ID)
}

// CanonicalVideoURL returns the public page URL for a video id.
func CanonicalVideoURL(id string) string {
	return "https://www.douyin.com/video/" + strings.TrimSpace(id)
}

// ArchiveExtension is appended to zipped image posts.
const ArchiveExtension = ".zip"

const defaultPlatform = "douyin"

// Media is a resolved, directly downloadable post: one video stream, or the
// images of an image (slideshow) post.
type Media struct {
	ID           string
	Platform     string
	Description  string
	StreamURL    string
	WatermarkURL string

	ImageURLs          []string
	WatermarkImageURLs []string
}

// URL picks the watermarked or unwatermarked stream.
func (m Media) URL(withWatermark bool) string {
	if withWatermark {
		return m.WatermarkURL
	}
	return m.StreamURL
}

// IsImagePost reports whether the post carries images instead of a video.
func (m Media) IsImagePost() bool {
	return m.StreamURL == "" && m.WatermarkURL == "" && (len(m.ImageURLs) > 0 || len(m.WatermarkImageURLs) > 0)
}

// Images picks the watermarked or unwatermarked image list.
func (m Media) Images(withWatermark bool) []string {
	if withWatermark {
		return m.WatermarkImageURLs
	}
	return m.ImageURLs
}

// stem is "{platform}_{id}", unique per post across platforms.
func (m Media) stem() string {
	platform := textutil.SanitizeOr(m.Platform, defaultPlatform)
	return platform + "_" + textutil.SanitizeOr(m.ID, "unknown")
}

// FileName names a single fetched video: "{platform}_{id}_{description}.mp4",
// or "{platform}_{id}_watermark.mp4" for the watermarked variant. The id keeps
// posts with identical captions apart.
func (m Media) FileName(withWatermark bool) string {
	stem := m.stem()
	if withWatermark {
		return stem + "_watermark" + MediaExtension
	}
	desc := textutil.SanitizeFileName(m.Description)
	if desc == "" {
		return stem + MediaExtension
	}
	name := stem + "_" + desc
	return textutil.TruncateBytes(name, textutil.MaxNameBytes-len(MediaExtension)) + MediaExtension
}

// ArchiveName names the zip holding an image post's images.
func (m Media) ArchiveName(withWatermark bool) string {
	name := m.stem() + "_images"
	if withWatermark {
		name += "_watermark"
	}
	return name + ArchiveExtension
}

// ImageName names the n-th (1-based) image inside the archive.
func (m Media) ImageName(n int, withWatermark bool, ext string) string {
	name := m.stem() + "_" + strconv.Itoa(n)
	if withWatermark {
		name += "_watermark"
	}
	return name + "." + ext
}
