package storypark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "storypark/pkg/errors"
	"storypark/pkg/logger"
	"storypark/pkg/ratelimit"
	"storypark/pkg/retry"
)

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Retry     *retry.Config
	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// Client talks to the Storypark API on behalf of one session
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	session    string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client bound to the given session token
func NewClient(session string, opts Options, log logger.Logger) (*Client, error) {
	if session == "" {
		return nil, errs.ErrMissingSession
	}
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
		retryCfg.Logger = log
	}

	headers := map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		httpClient: httpClient,
		headers:    headers,
		baseURL:    baseURL,
		session:    session,
		limiter:    limiter,
		retry:      retryCfg,
		logger:     log,
	}, nil
}

// doRequest performs a single throttled GET carrying the session cookie
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "GET %s", url)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkResponseStatus maps any non-2xx status to a typed error
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	t := errs.FromStatusCode(resp.StatusCode)
	var msg string
	switch t {
	case errs.ErrorTypeAuth:
		msg = "session rejected, the session id may have expired"
	case errs.ErrorTypeNotFound:
		msg = "resource not found"
	case errs.ErrorTypeRateLimit:
		msg = "rate limit exceeded"
	case errs.ErrorTypeServerError:
		msg = "server error"
	default:
		msg = "unexpected status code"
	}
	return errs.New(t, resp.StatusCode, "%s: %s", msg, resp.Request.URL.String())
}

// getBody fetches url with retries and returns the whole response body
func (c *Client) getBody(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
		}
		return body, nil
	}, c.retry)
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, err := c.getBody(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		var typed *errs.Error
		if errors.As(err, &typed) {
			return typed
		}

		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.DebugWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse JSON from %s", url)
	}
	return nil
}

// FetchCurrentUser authenticates the session and returns the account with its children
func (c *Client) FetchCurrentUser(ctx context.Context) (*User, error) {
	var resp CurrentUserResponse
	if err := c.GetJSON(ctx, CurrentUserURL(c.baseURL), &resp); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	c.logger.DebugWithFields("fetched current user", map[string]interface{}{
		"children": len(resp.User.Children),
	})
	return &resp.User, nil
}

// FetchStories fetches one page of a child's story feed
func (c *Client) FetchStories(ctx context.Context, childID ID, pageToken string) (*StoryPage, error) {
	var page StoryPage
	if err := c.GetJSON(ctx, StoriesURL(c.baseURL, childID, pageToken), &page); err != nil {
		return nil, fmt.Errorf("fetch stories for child %s: %w", childID, err)
	}

	c.logger.DebugWithFields("fetched story page", map[string]interface{}{
		"child_id":   string(childID),
		"page_token": pageToken,
		"stories":    len(page.Stories),
		"has_next":   page.NextPageToken != "",
	})
	return &page, nil
}

// DownloadMedia fetches the bytes behind a media original_url
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	data, err := c.getBody(ctx, mediaURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", mediaURL, err)
	}
	return data, nil
}
