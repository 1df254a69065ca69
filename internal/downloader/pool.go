package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"storypark/pkg/logger"
	"storypark/pkg/metadata"
)

// ErrPoolClosed is returned by Submit once the pool has been stopped or its
// context cancelled
var ErrPoolClosed = errors.New("worker pool is shutting down")

// Job is one media file to fetch. It carries only what a worker needs.
type Job struct {
	URL         string
	Path        string
	ChildID     string
	ContentType string
}

// Result is the outcome of a Job
type Result struct {
	Job Job
	// Item is set when the file was written
	Item *metadata.Item
	// Existed is set when the target appeared on disk after the job was queued
	Existed  bool
	Err      error
	Duration time.Duration
}

// Success reports whether the job wrote its file
func (r Result) Success() bool {
	return r.Item != nil && r.Err == nil
}

// MediaFetcher downloads media bytes
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, url string) ([]byte, error)
}

// MediaStorage persists media files
type MediaStorage interface {
	Exists(path string) bool
	Save(r io.Reader, path string) (int64, error)
}

// WorkerPool runs a fixed number of download workers over a job queue
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaFetcher
	storage     MediaStorage
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool whose workers stop fetching when ctx is cancelled
func NewWorkerPool(ctx context.Context, numWorkers int, client MediaFetcher, storage MediaStorage, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs to finish and closes Results.
// Callers must not Submit after Stop.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("worker pool stopped")
	})
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	if wp.ctx.Err() != nil {
		return ErrPoolClosed
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return ErrPoolClosed
	}
}

// Results returns the channel of job outcomes. It must be drained until closed.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker processes every queued job. After cancellation jobs still produce
// a result so that none go missing from the tally.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if err := wp.ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	// two entries can resolve to the same path, the first one wins
	if wp.storage.Exists(job.Path) {
		result.Existed = true
		result.Duration = time.Since(start)
		return result
	}

	data, err := wp.client.DownloadMedia(wp.ctx, job.URL)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		if wp.ctx.Err() == nil {
			wp.logger.ErrorWithFields("failed to download media", map[string]interface{}{
				"worker_id": workerID,
				"url":       job.URL,
				"path":      job.Path,
				"error":     err.Error(),
			})
		}
		return result
	}

	wp.checkContentType(job, data)

	size, err := wp.storage.Save(bytes.NewReader(data), job.Path)
	if err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.ErrorWithFields("failed to save media", map[string]interface{}{
			"worker_id": workerID,
			"path":      job.Path,
			"error":     err.Error(),
		})
		return result
	}

	result.Duration = time.Since(start)
	result.Item = &metadata.Item{
		Path:        job.Path,
		URL:         job.URL,
		ChildID:     job.ChildID,
		ContentType: job.ContentType,
		Size:        size,
		SavedAt:     time.Now().UTC(),
	}
	logger.LogSaved(wp.logger, job.Path, job.URL, size)
	return result
}

// checkContentType warns when the bytes do not look like the declared type.
// The file is written verbatim either way.
func (wp *WorkerPool) checkContentType(job Job, data []byte) {
	if job.ContentType == "" || len(data) == 0 {
		return
	}
	detected := mimetype.Detect(data)
	if detected.Is(job.ContentType) {
		return
	}
	wp.logger.WarnWithFields("content does not match declared type", map[string]interface{}{
		"path":     job.Path,
		"declared": job.ContentType,
		"detected": detected.String(),
	})
}
