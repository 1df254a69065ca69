// Package ratelimit throttles outbound Storypark requests.
//
// The API client and the download workers share one Limiter so the whole
// crawl stays under rate_limit.requests_per_minute:
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
package ratelimit
