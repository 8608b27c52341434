package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"feedscribe/internal/catalog"
	"feedscribe/internal/download"
	"feedscribe/internal/textutil"
)

const progressLabelBytes = 32

// newProgressFunc draws one byte-counting bar per transfer on w. Transfers of
// unknown size get a spinner.
func newProgressFunc(w io.Writer) download.ProgressFunc {
	return func(brief catalog.VideoBrief, size int64) io.Writer {
		label := textutil.TruncateBytes(textutil.SanitizeOr(brief.Description, brief.ID), progressLabelBytes)
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(label),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		)
	}
}
