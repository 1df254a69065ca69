package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storypark/internal/downloader"
	"storypark/pkg/archiver"
	"storypark/pkg/metadata"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output()
	SetOutput(&buf)
	SetQuietMode(false)
	t.Cleanup(func() {
		SetOutput(prev)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Root", "/archive")
	PrintSuccess("done")
	PrintWarning("careful", "now")
	PrintError("failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "Root")
	assert.Contains(t, out, "/archive")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "careful: now")
	assert.Contains(t, out, "failed: boom")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Root", "/archive")
	PrintSuccess("done")
	PrintError("failed")

	out := buf.String()
	assert.NotContains(t, out, "/archive")
	assert.NotContains(t, out, "done")
	assert.Contains(t, out, "failed")
}

func TestRenderSummary(t *testing.T) {
	s := archiver.Summary{
		RunID:              "run-1",
		Children:           2,
		Stories:            1234,
		Queued:             10,
		Saved:              9,
		SavedBytes:         5 * 1000 * 1000,
		SkippedExisting:    40,
		SkippedUnsupported: 1,
		Failed:             1,
		Duration:           90 * time.Second,
	}

	out := RenderSummary(s)
	assert.Contains(t, out, "finished with errors")
	assert.Contains(t, out, "1,234")
	assert.Contains(t, out, "5.0 MB")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "run-1")

	s.Failed = 0
	assert.Contains(t, RenderSummary(s), "Archive complete")
}

func TestPrintSummaryInQuietModeOnlyOnFailure(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintSummary(archiver.Summary{Saved: 1})
	assert.Empty(t, buf.String())

	PrintSummary(archiver.Summary{FailedChildren: 1})
	assert.Contains(t, buf.String(), "finished with errors")
}

func TestProgressDisplayCounts(t *testing.T) {
	captureOutput(t)
	p := NewProgressDisplay(false)

	p.Queued(3)
	p.Completed(downloader.Result{Item: &metadata.Item{Size: 1000}})
	p.Completed(downloader.Result{Existed: true})
	p.Completed(downloader.Result{Err: errors.New("boom")})

	line := p.Line()
	assert.Contains(t, line, "3/3")
	assert.Contains(t, line, "1.0 kB")
	assert.Contains(t, line, "1 failed")
	assert.Equal(t, 20, strings.Count(line, "━"))
}

func TestProgressDisplayDebugPrintsItems(t *testing.T) {
	buf := captureOutput(t)
	p := NewProgressDisplay(true)

	p.Queued(1)
	p.Completed(downloader.Result{
		Job:  downloader.Job{Path: "/out/2025-07-11 - Park Day/00.jpg"},
		Item: &metadata.Item{Size: 2048},
	})
	p.Finish()

	assert.Contains(t, buf.String(), "00.jpg")
	assert.Contains(t, buf.String(), "2.0 kB")
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return errors.New("no display")
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{}
	NewNotifierWithSender(sender).Notify("Storypark", "done")
	assert.Equal(t, []string{"Storypark"}, sender.titles)

	NewNotifierWithSender(nil).Notify("Storypark", "ignored")
}
