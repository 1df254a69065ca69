package storypark

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the root of the Storypark journal API
	DefaultBaseURL = "https://app.storypark.com/api/v3"

	// SessionCookie is the cookie that authenticates every request
	SessionCookie = "_session_id"

	// CurrentUserEndpoint returns the signed-in user and their children
	CurrentUserEndpoint = "/users/me"

	// StoriesEndpoint is the story feed of one child, formatted with the child id
	StoriesEndpoint = "/children/%s/stories"
)

// CurrentUserURL constructs the URL of the signed-in user's profile
func CurrentUserURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + CurrentUserEndpoint
}

// StoriesURL constructs the URL for one page of a child's story feed.
// An empty pageToken requests the first page.
func StoriesURL(baseURL string, childID ID, pageToken string) string {
	params := url.Values{}
	params.Set("sort_by", "updated_at")
	params.Set("story_type", "all")
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}

	path := fmt.Sprintf(StoriesEndpoint, url.PathEscape(string(childID)))
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), path, params.Encode())
}
