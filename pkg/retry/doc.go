// Package retry re-runs transient failures of Storypark API and media requests.
//
// Only typed errors from storypark/pkg/errors whose type is network,
// rate_limit or server_error are retried; auth, not_found and parsing errors
// fail immediately so a bad session or malformed page surfaces at once.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.getJSON(ctx, url, &page)
//	}, retry.FromSettings(cfg.Retry, log))
package retry
