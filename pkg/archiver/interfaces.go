package archiver

import (
	"context"

	"storypark/internal/downloader"
	"storypark/pkg/storypark"
)

// StoryFetcher fetches pages of a child's story feed
type StoryFetcher interface {
	FetchStories(ctx context.Context, childID storypark.ID, pageToken string) (*storypark.StoryPage, error)
}

// StoryparkClient defines the API operations a crawl needs
type StoryparkClient interface {
	StoryFetcher
	downloader.MediaFetcher
	FetchCurrentUser(ctx context.Context) (*storypark.User, error)
}

// ExistenceChecker reports whether an item is already archived
type ExistenceChecker interface {
	Exists(path string) bool
}

// Progress observes download activity, typically to draw a status line
type Progress interface {
	Queued(n int)
	Completed(result downloader.Result)
}

type noProgress struct{}

func (noProgress) Queued(int)                   {}
func (noProgress) Completed(downloader.Result) {}
