// Package storypark is a small client for the Storypark journal API.
//
// Every request carries the _session_id cookie, is throttled by a
// ratelimit.Limiter and retried on network, rate-limit and server errors.
// Responses decode into explicit record types that fail on missing required
// fields instead of surfacing zero values:
//
//	client, err := storypark.NewClient(sessionID, storypark.Options{}, log)
//	user, err := client.FetchCurrentUser(ctx)
//	page, err := client.FetchStories(ctx, user.Children[0].ID, "")
package storypark
