package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"feedscribe/internal/download"
	"feedscribe/internal/media"
)

// tone classifies a status for colouring.
type tone int

const (
	toneInfo tone = iota
	toneGood
	toneWarn
	toneBad
)

var toneColors = map[tone]text.Colors{
	toneInfo: {text.FgBlue},
	toneGood: {text.FgGreen},
	toneWarn: {text.FgYellow},
	toneBad:  {text.FgRed},
}

// outcomeTone maps download and analysis outcome statuses onto a tone. Both
// packages share the "success" and "fail" spellings.
func outcomeTone(status string) tone {
	switch status {
	case media.StatusSuccess:
		return toneGood
	case media.StatusDegraded:
		return toneWarn
	case media.StatusFail:
		return toneBad
	case string(download.StatusExists), media.StatusSkipped:
		return toneInfo
	default:
		return toneInfo
	}
}

func paint(s string, t tone, colorize bool) string {
	if !colorize {
		return s
	}
	return toneColors[t].Sprint(s)
}

const checkLabelWidth = 22

// checkLine renders one doctor row: "  FFmpeg:               [OK] /usr/bin/ffmpeg".
func checkLine(label string, t tone, detail string, colorize bool) string {
	badge := map[tone]string{toneGood: "OK", toneWarn: "WARN", toneBad: "FAIL"}[t]
	if badge == "" {
		badge = "INFO"
	}
	line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, label+":", badge)
	if detail = strings.TrimSpace(detail); detail != "" {
		line += " " + detail
	}
	return paint(line, t, colorize)
}

func sectionTitle(title string, colorize bool) string {
	return paint(text.Underline.Sprint(strings.TrimSpace(title)), toneInfo, colorize)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
