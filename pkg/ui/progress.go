package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"storypark/internal/downloader"
)

// ProgressDisplay draws a single status line that is rewritten as
// downloads are queued and finish
type ProgressDisplay struct {
	mu         sync.Mutex
	queued     int
	saved      int
	existed    int
	failed     int
	bytes      int64
	startTime  time.Time
	lastRender time.Time
	interval   time.Duration
	isDebug    bool
}

// NewProgressDisplay creates a progress line. In debug mode every completed
// item is printed on its own line instead.
func NewProgressDisplay(debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		startTime: time.Now(),
		interval:  100 * time.Millisecond,
		isDebug:   debug,
	}
}

// Queued adds n jobs to the expected total
func (p *ProgressDisplay) Queued(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued += n
	p.render(false)
}

// Completed records the outcome of one job
func (p *ProgressDisplay) Completed(result downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case result.Existed:
		p.existed++
	case result.Success():
		p.saved++
		p.bytes += result.Item.Size
		if p.isDebug {
			p.printItem(Green("✓"), result.Job.Path, humanize.Bytes(uint64(result.Item.Size)))
		}
	default:
		p.failed++
		if p.isDebug {
			p.printItem(Red("✗"), result.Job.Path, fmt.Sprint(result.Err))
		}
	}
	p.render(false)
}

// Finish draws the final state and ends the line
func (p *ProgressDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render(true)
	if !p.isDebug && !IsQuietMode() {
		fmt.Fprintln(Output())
	}
}

// Line returns the current status text
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) line() string {
	done := p.saved + p.existed + p.failed

	const width = 20
	filled := 0
	if p.queued > 0 {
		filled = done * width / p.queued
		if filled > width {
			filled = width
		}
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)

	line := fmt.Sprintf("[%s] %d/%d • %s • %s",
		bar,
		done,
		p.queued,
		humanize.Bytes(uint64(p.bytes)),
		formatDuration(time.Since(p.startTime)),
	)
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}
	return line
}

func (p *ProgressDisplay) render(force bool) {
	if p.isDebug || IsQuietMode() {
		return
	}
	if !force && time.Since(p.lastRender) < p.interval {
		return
	}
	p.lastRender = time.Now()
	fmt.Fprintf(Output(), "\r%s\r%s", strings.Repeat(" ", 100), p.line())
}

func (p *ProgressDisplay) printItem(mark, path, detail string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output(), "%s %s • %s\n", mark, path, Dim(detail))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
