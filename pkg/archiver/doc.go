// Package archiver crawls a Storypark account and mirrors story media to disk.
//
// A run authenticates with GET /users/me, then crawls children through a
// bounded errgroup. Each child's feed is paginated strictly in order and every
// story is handed to the Extractor, which turns supported media entries into
// download jobs for a shared downloader.WorkerPool. Target paths come from
// media.Namer, so a second run over unchanged data finds every file present
// and downloads nothing.
//
// Failures are isolated: a child whose pagination fails stops alone, and a
// media item that cannot be fetched or written fails alone. Run returns a
// Summary in every case together with the joined errors of the failed
// branches.
//
// Usage:
//
//	a := archiver.New(client, store, manifest, archiver.Options{
//	    Root:                "/archive",
//	    ConcurrentDownloads: 3,
//	    ConcurrentChildren:  1,
//	}, log)
//	summary, err := a.Run(ctx)
package archiver
