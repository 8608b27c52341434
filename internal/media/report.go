package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"feedscribe/internal/fileutil"
	"feedscribe/internal/language"
	"feedscribe/internal/textutil"
)

// ReportExtension is the file extension of analysis reports.
const ReportExtension = ".md"

const (
	sectionTranscript = "transcript"
	sectionAnalysis   = "analysis"
)

// Report is the persisted result for one video.
type Report struct {
	BaseName   string
	Transcript string
	Analysis   string
	OutputPath string
	Provider   string
	// AnalysisErr is set when the provider gave up; Analysis then holds the
	// provider's placeholder text.
	AnalysisErr error
}

// ReportPath returns where the report for a source file is written.
func ReportPath(outputDir, source string) string {
	return filepath.Join(outputDir, BaseName(source)+ReportExtension)
}

// BaseName strips directory and extension from a source path.
func BaseName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func renderReport(r Report, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.BaseName)
	fmt.Fprintf(&b, "- Provider: %s\n", r.Provider)
	fmt.Fprintf(&b, "- Language: %s (%s)\n\n", language.DisplayName(lang), language.ToISO3(lang))
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", textutil.Title(sectionTranscript), strings.TrimSpace(r.Transcript))
	fmt.Fprintf(&b, "## %s\n\n%s\n", textutil.Title(sectionAnalysis), strings.TrimSpace(r.Analysis))
	return b.String()
}

func writeReport(r Report, lang string) error {
	if _, err := fileutil.StreamToFile(r.OutputPath, strings.NewReader(renderReport(r, lang)), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", filepath.Base(r.OutputPath), err)
	}
	return nil
}

// reportExists reports whether a finished report is present.
func reportExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
