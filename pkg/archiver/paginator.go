package archiver

import (
	"context"

	errs "storypark/pkg/errors"
	"storypark/pkg/storypark"
)

// PageFunc handles one page of stories. Returning an error stops pagination.
type PageFunc func(page *storypark.StoryPage) error

// Paginate walks a child's story feed from the first page, following
// next_page_token until a page has none. Pages are fetched strictly in
// sequence; the number of requests is the number of tokens plus one.
// It returns the number of pages handled.
func Paginate(ctx context.Context, client StoryFetcher, childID storypark.ID, fn PageFunc) (int, error) {
	seen := make(map[string]struct{})
	token := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		page, err := client.FetchStories(ctx, childID, token)
		if err != nil {
			return pages, err
		}
		pages++

		if err := fn(page); err != nil {
			return pages, err
		}

		if page.NextPageToken == "" {
			return pages, nil
		}
		if _, dup := seen[page.NextPageToken]; dup || page.NextPageToken == token {
			return pages, errs.New(errs.ErrorTypeParsing, 0, "child %s: page token %q repeats", childID, page.NextPageToken)
		}
		seen[token] = struct{}{}
		token = page.NextPageToken
	}
}
