// Package logger provides structured logging for the archiver.
//
// It wraps zerolog behind a small Logger interface so components receive a
// logger in their constructors and tests can swap in a TestLogger:
//
//	log := logger.GetLogger().WithField("run_id", logger.NewRunID())
//	log.InfoWithFields("crawl started", map[string]interface{}{
//	    "root": rootPath,
//	})
//
// Console output is colourised and written to stderr. When logging.file is
// set, lines are additionally appended to that file.
package logger
