package parseapi

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"feedscribe/internal/catalog"
	"feedscribe/internal/services"
)

const (
	routeSecUserID = "/api/douyin/web/get_sec_user_id"
	routeAwemeID   = "/api/douyin/web/get_aweme_id"
	routeVideoData = "/api/hybrid/video_data"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>，。]+`)

// ExtractURL returns the first http(s) URL embedded in share text, or the
// trimmed input when it contains none.
func ExtractURL(shareText string) string {
	if match := urlPattern.FindString(shareText); match != "" {
		return match
	}
	return strings.TrimSpace(shareText)
}

// ResolveUserID maps a profile URL (or share text containing one) to the
// platform user id used for feed listing.
func (c *Client) ResolveUserID(ctx context.Context, userURL string) (string, error) {
	return c.resolveString(ctx, routeSecUserID, ExtractURL(userURL))
}

// VideoID maps a video URL to its id.
func (c *Client) VideoID(ctx context.Context, videoURL string) (string, error) {
	return c.resolveString(ctx, routeAwemeID, ExtractURL(videoURL))
}

// CanonicalVideoURL resolves share text or any video link to the canonical
// video page URL.
func (c *Client) CanonicalVideoURL(ctx context.Context, shareText string) (string, error) {
	id, err := c.VideoID(ctx, shareText)
	if err != nil {
		return "", err
	}
	return catalog.CanonicalVideoURL(id), nil
}

func (c *Client) resolveString(ctx context.Context, route, target string) (string, error) {
	if target == "" {
		return "", services.Wrap(services.ErrValidation, "parseapi", route, "No URL supplied", nil)
	}
	query := url.Values{}
	query.Set("url", target)
	var value string
	if err := c.getJSON(ctx, route, query, &value); err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", services.Wrap(services.ErrNotFound, "parseapi", route, "Could not resolve "+target, nil)
	}
	return value, nil
}

type videoData struct {
	Type      string `json:"type"`
	Platform  string `json:"platform"`
	AwemeID   string `json:"aweme_id"`
	VideoID   string `json:"video_id"`
	Desc      string `json:"desc"`
	VideoData struct {
		WatermarkURL   string `json:"wm_video_url_HQ"`
		NoWatermarkURL string `json:"nwm_video_url_HQ"`
	} `json:"video_data"`
	ImageData struct {
		NoWatermark []string `json:"no_watermark_image_list"`
		Watermark   []string `json:"watermark_image_list"`
	} `json:"image_data"`
}

// ResolveMedia returns the signed stream URLs for a video page URL. Image
// posts resolve to their image lists instead.
func (c *Client) ResolveMedia(ctx context.Context, videoURL string) (catalog.Media, error) {
	query := url.Values{}
	query.Set("url", videoURL)
	query.Set("minimal", "true")

	var data videoData
	if err := c.getJSON(ctx, routeVideoData, query, &data); err != nil {
		return catalog.Media{}, err
	}
	media := catalog.Media{
		ID:          firstNonEmpty(data.AwemeID, data.VideoID),
		Platform:    data.Platform,
		Description: data.Desc,
	}
	switch data.Type {
	case "", "video":
		media.StreamURL = data.VideoData.NoWatermarkURL
		media.WatermarkURL = data.VideoData.WatermarkURL
		if media.StreamURL == "" && media.WatermarkURL == "" {
			return catalog.Media{}, services.Wrap(services.ErrNotFound, "parseapi", routeVideoData, "No stream URL in response", nil)
		}
	case "image":
		media.ImageURLs = nonEmpty(data.ImageData.NoWatermark)
		media.WatermarkImageURLs = nonEmpty(data.ImageData.Watermark)
		if len(media.ImageURLs) == 0 && len(media.WatermarkImageURLs) == 0 {
			return catalog.Media{}, services.Wrap(services.ErrNotFound, "parseapi", routeVideoData, "No image URLs in response", nil)
		}
	default:
		return catalog.Media{}, services.Wrap(services.ErrValidation, "parseapi", routeVideoData, "Unsupported media type "+data.Type, nil)
	}
	return media, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
