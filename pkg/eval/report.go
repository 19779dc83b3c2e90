package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/amrlabs/amrd/pkg/models"
)

// ReportFilename names the report artifact for a split and mode. One file
// per split/mode combination; a rerun replaces it wholesale.
func ReportFilename(report *models.ScoreReport) string {
	name := fmt.Sprintf("report_%s", report.Split)
	if report.WikiMode {
		name += "_wiki"
	}
	return name + ".txt"
}

// RenderReport formats the report for humans. Scores are already rounded;
// they are printed as-is.
func RenderReport(report *models.ScoreReport, warnings []string) string {
	mode := "off"
	if report.WikiMode {
		mode = "on"
	}

	var b strings.Builder
	b.WriteString("AMR evaluation report\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "split:      %s\n", report.Split)
	fmt.Fprintf(&b, "wiki mode:  %s\n", mode)
	fmt.Fprintf(&b, "created:    %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "restarts:   %d\n", report.Restarts)
	fmt.Fprintf(&b, "pairs:      %s scored, %s skipped\n",
		humanize.Comma(int64(report.Pairs)), humanize.Comma(int64(report.Skipped)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "matched triples:    %s\n", humanize.Comma(int64(report.Matched)))
	fmt.Fprintf(&b, "candidate triples:  %s\n", humanize.Comma(int64(report.Candidate)))
	fmt.Fprintf(&b, "reference triples:  %s\n", humanize.Comma(int64(report.Reference)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "precision:  %s\n", formatScore(report.Precision))
	fmt.Fprintf(&b, "recall:     %s\n", formatScore(report.Recall))
	fmt.Fprintf(&b, "f1:         %s\n", formatScore(report.F1))

	if len(warnings) > 0 {
		b.WriteString("\nwarnings:\n")
		for _, warning := range warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
	}
	return b.String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}

// WriteReport writes the rendered report under dir, going through a temp
// file and a rename so a crash mid-write never leaves a partial report.
func WriteReport(dir string, report *models.ScoreReport, warnings []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	final := filepath.Join(dir, ReportFilename(report))
	tmp, err := os.CreateTemp(dir, ReportFilename(report)+".tmp-")
	if err != nil {
		return "", fmt.Errorf("creating report temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(RenderReport(report, warnings)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing report temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("publishing report: %w", err)
	}
	return final, nil
}
