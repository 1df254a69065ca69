package archiver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storypark/internal/downloader"
	"storypark/pkg/logger"
	"storypark/pkg/media"
	"storypark/pkg/metadata"
	"storypark/pkg/storypark"
)

// Options controls a crawl
type Options struct {
	Root                string
	LegacyNames         bool
	ConcurrentDownloads int
	ConcurrentChildren  int
	RunID               string
}

// Archiver mirrors every child's story media into a directory tree
type Archiver struct {
	client    StoryparkClient
	storage   downloader.MediaStorage
	recorder  metadata.Recorder
	progress  Progress
	extractor *Extractor
	opts      Options
	logger    logger.Logger
}

// New creates an Archiver. A nil recorder discards completed items.
func New(client StoryparkClient, storage downloader.MediaStorage, recorder metadata.Recorder, opts Options, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.GetLogger()
	}
	if recorder == nil {
		recorder = metadata.Discard{}
	}
	if opts.ConcurrentDownloads <= 0 {
		opts.ConcurrentDownloads = 1
	}
	if opts.ConcurrentChildren <= 0 {
		opts.ConcurrentChildren = 1
	}

	namer := media.Namer{Root: opts.Root, Legacy: opts.LegacyNames}
	return &Archiver{
		client:    client,
		storage:   storage,
		recorder:  recorder,
		progress:  noProgress{},
		extractor: NewExtractor(namer, storage, log),
		opts:      opts,
		logger:    log,
	}
}

// SetProgress attaches a progress observer
func (a *Archiver) SetProgress(p Progress) {
	if p == nil {
		p = noProgress{}
	}
	a.progress = p
}

// Run authenticates, walks every child's feed and downloads new media.
// A failing child or media item does not stop the others; their errors are
// joined into the returned error and the summary is always returned.
func (a *Archiver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	t := &tally{s: Summary{RunID: a.opts.RunID}}
	finish := func() Summary {
		t.update(func(s *Summary) { s.Duration = time.Since(start) })
		return t.snapshot()
	}

	a.logger.InfoWithFields("starting crawl", map[string]interface{}{
		"root":                 a.opts.Root,
		"concurrent_downloads": a.opts.ConcurrentDownloads,
		"concurrent_children":  a.opts.ConcurrentChildren,
	})

	user, err := a.client.FetchCurrentUser(ctx)
	if err != nil {
		return finish(), fmt.Errorf("authenticate: %w", err)
	}
	t.update(func(s *Summary) { s.Children = len(user.Children) })

	pool := downloader.NewWorkerPool(ctx, a.opts.ConcurrentDownloads, a.client, a.storage, a.logger)
	pool.Start()

	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		a.processResults(pool.Results(), t)
	}()

	var (
		mu          sync.Mutex
		childErrors []error
		g           errgroup.Group
	)
	g.SetLimit(a.opts.ConcurrentChildren)

	for _, child := range user.Children {
		child := child
		g.Go(func() error {
			if err := a.crawlChild(ctx, child.ID, pool, t); err != nil {
				t.update(func(s *Summary) { s.FailedChildren++ })
				mu.Lock()
				childErrors = append(childErrors, fmt.Errorf("child %s: %w", child.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	pool.Stop()
	consumer.Wait()

	summary := finish()
	a.logger.InfoWithFields("crawl finished", map[string]interface{}{
		"children":            summary.Children,
		"failed_children":     summary.FailedChildren,
		"stories":             summary.Stories,
		"saved":               summary.Saved,
		"skipped_existing":    summary.SkippedExisting,
		"skipped_unsupported": summary.SkippedUnsupported,
		"failed":              summary.Failed,
		"duration":            summary.Duration.String(),
	})

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if summary.Failed > 0 {
		childErrors = append(childErrors, fmt.Errorf("%d media downloads failed", summary.Failed))
	}
	if summary.Invalid > 0 {
		childErrors = append(childErrors, fmt.Errorf("%d media entries were malformed", summary.Invalid))
	}
	return summary, errors.Join(childErrors...)
}

// crawlChild paginates one child's feed and queues its media
func (a *Archiver) crawlChild(ctx context.Context, childID storypark.ID, pool *downloader.WorkerPool, t *tally) error {
	log := a.logger.WithField("child_id", string(childID))
	log.Info("crawling child")

	pages, err := Paginate(ctx, a.client, childID, func(page *storypark.StoryPage) error {
		for _, story := range page.Stories {
			ext := a.extractor.Extract(childID, story)
			t.update(func(s *Summary) {
				s.Stories++
				s.Queued += len(ext.Jobs)
				s.SkippedExisting += ext.Existing
				s.SkippedUnsupported += ext.Unsupported
				s.Invalid += ext.Invalid
			})

			if len(ext.Jobs) > 0 {
				a.progress.Queued(len(ext.Jobs))
			}
			for _, job := range ext.Jobs {
				if err := pool.Submit(job); err != nil {
					return err
				}
			}
		}
		return nil
	})
	t.update(func(s *Summary) { s.Pages += pages })

	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).ErrorWithFields("child crawl failed", map[string]interface{}{
				"pages": pages,
			})
		}
		return err
	}

	log.DebugWithFields("child crawl complete", map[string]interface{}{
		"pages": pages,
	})
	return nil
}

// processResults drains the pool, recording saved items and failures
func (a *Archiver) processResults(results <-chan downloader.Result, t *tally) {
	for result := range results {
		a.progress.Completed(result)

		switch {
		case result.Existed:
			t.update(func(s *Summary) { s.SkippedExisting++ })
		case result.Success():
			item := *result.Item
			t.update(func(s *Summary) {
				s.Saved++
				s.SavedBytes += item.Size
			})
			if err := a.recorder.Record(item); err != nil {
				a.logger.WithError(err).WarnWithFields("failed to record item in manifest", map[string]interface{}{
					"path": item.Path,
				})
			}
		default:
			t.update(func(s *Summary) { s.Failed++ })
		}
	}
}
