package parseapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"feedscribe/internal/services"
)

// OpenStream starts a GET for a media URL with the platform headers and returns
// the body and its declared length (-1 when unknown). The caller closes the
// body; canceling ctx aborts the transfer.
func (c *Client) OpenStream(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "download", "build request", "Invalid media URL", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, 0, classify(ctx, "media stream", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, statusFailure("media stream", &StatusError{
			Route:      "media stream",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("GET %s", req.URL.Host),
		})
	}
	return resp.Body, resp.ContentLength, nil
}
