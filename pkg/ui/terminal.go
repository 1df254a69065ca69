package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	outMu     sync.Mutex
	out       io.Writer = os.Stdout
	quietMode bool
)

// SetOutput redirects everything this package prints
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// Output returns the current output writer
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// SetQuietMode suppresses informational output. Errors are still printed.
func SetQuietMode(quiet bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether informational output is suppressed
func IsQuietMode() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quietMode
}

func printLine(always bool, s string) {
	outMu.Lock()
	defer outMu.Unlock()
	if quietMode && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// PrintBanner prints the application title
func PrintBanner(version string) {
	printLine(false, titleStyle.Render("storypark archiver")+" "+Dim(version))
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprint(args...)
	}
	printLine(true, Red("✗ "+msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	printLine(false, Green("✓ "+msg))
}

// PrintInfo prints a label and its value
func PrintInfo(label string, value string) {
	printLine(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprint(args...)
	}
	printLine(false, warningStyle.Render("! "+msg))
}

// PrintHighlight prints a section heading
func PrintHighlight(msg string) {
	printLine(false, titleStyle.Render(msg))
}
