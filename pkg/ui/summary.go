package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"storypark/pkg/archiver"
)

// RenderSummary formats the end-of-run tally as a bordered panel
func RenderSummary(s archiver.Summary) string {
	rows := [][2]string{
		{"Children", childCount(s)},
		{"Stories", humanize.Comma(int64(s.Stories))},
		{"Queued", humanize.Comma(int64(s.Queued))},
		{"Saved", fmt.Sprintf("%s (%s)", humanize.Comma(int64(s.Saved)), humanize.Bytes(uint64(s.SavedBytes)))},
		{"Already archived", humanize.Comma(int64(s.SkippedExisting))},
		{"Unsupported", humanize.Comma(int64(s.SkippedUnsupported))},
		{"Failed", humanize.Comma(int64(s.Failed + s.Invalid))},
		{"Duration", formatDuration(s.Duration)},
	}

	labelWidth := 0
	for _, r := range rows {
		if w := lipgloss.Width(r[0]); w > labelWidth {
			labelWidth = w
		}
	}
	label := labelStyle.Width(labelWidth + 2)

	var b strings.Builder
	heading := Green("Archive complete")
	if s.HasFailures() {
		heading = warningStyle.Render("Archive finished with errors")
	}
	b.WriteString(heading)
	b.WriteString("\n")
	for _, r := range rows {
		value := Yellow(r[1])
		if r[0] == "Failed" && (s.Failed+s.Invalid) > 0 {
			value = Red(r[1])
		}
		b.WriteString(label.Render(r[0]) + value + "\n")
	}
	if s.RunID != "" {
		b.WriteString(Dim("run " + s.RunID))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// PrintSummary prints the end-of-run panel. It is shown in quiet mode too
// when the run failed.
func PrintSummary(s archiver.Summary) {
	printLine(s.HasFailures(), RenderSummary(s))
}

func childCount(s archiver.Summary) string {
	if s.FailedChildren == 0 {
		return humanize.Comma(int64(s.Children))
	}
	return fmt.Sprintf("%d (%d failed)", s.Children, s.FailedChildren)
}
