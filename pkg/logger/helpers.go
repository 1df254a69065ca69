package logger

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier used to correlate all log lines of one crawl
func NewRunID() string {
	return uuid.NewString()
}

// LogSaved logs the per-file trace emitted after a media item lands on disk
func LogSaved(l Logger, path, url string, size int64) {
	l.InfoWithFields("saved media", map[string]interface{}{
		"path": path,
		"url":  url,
		"size": humanize.Bytes(uint64(size)),
	})
}

// LogSkipped logs a non-fatal skip of one media entry
func LogSkipped(l Logger, reason string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["reason"] = reason
	l.WarnWithFields("skipping media", merged)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(msg string)                                          {}
func (n nopLogger) Info(msg string)                                           {}
func (n nopLogger) Warn(msg string)                                           {}
func (n nopLogger) Error(msg string)                                          {}
func (n nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n nopLogger) WithError(err error) Logger                                { return n }
func (n nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
