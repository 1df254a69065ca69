// Package ui renders terminal output for the storypark CLI: styled status
// lines, the download progress line and the end-of-run summary panel.
package ui
