package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PerPage is the fixed page size for every paged request.
	PerPage = 100

	// tokenPassword is the fixed basic-auth password paired with a personal
	// access token used as the username.
	tokenPassword = "x-oauth-basic"

	userAgent = "ghvault"
	accept    = "application/vnd.github.v3+json"
)

// Credentials carries the optional authorization inputs. At most one of the
// token or the username/password pair is set; config validation enforces
// this before a Client is built.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// header renders the Authorization header value, or "" for anonymous access.
func (c Credentials) header() string {
	switch {
	case c.Token != "":
		raw := c.Token + ":" + tokenPassword
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	case c.Username != "":
		raw := c.Username + ":" + c.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	default:
		return ""
	}
}

// Client fetches paged collections and single objects from the GitHub API.
// It is the single chokepoint for all network I/O in a backup run.
type Client struct {
	httpClient *http.Client
	apiHost    string
	authHeader string
	limiter    *RateLimiter
	log        logger.Logger

	// now and sleep are swappable so tests can exercise the rate-limit
	// retry path without wall-clock waits.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a client rooted at apiHost (no trailing slash).
func NewClient(apiHost string, creds Credentials, limiter *RateLimiter, log logger.Logger) *Client {
	if limiter == nil {
		limiter = NewRateLimiter()
	}
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		apiHost:    apiHost,
		authHeader: creds.header(),
		limiter:    limiter,
		log:        log,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Limiter returns the shared rate limiter.
func (c *Client) Limiter() *RateLimiter {
	return c.limiter
}

// FetchAll retrieves every page of a collection endpoint. The result holds
// pages in request order with server order preserved within each page.
func (c *Client) FetchAll(ctx context.Context, path string, params map[string]string) ([]Record, error) {
	return c.fetch(ctx, path, params, false)
}

// FetchOne retrieves an endpoint that returns exactly one object.
func (c *Client) FetchOne(ctx context.Context, path string, params map[string]string) (Record, error) {
	records, err := c.fetch(ctx, path, params, true)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, path)
	}
	return records[0], nil
}

// fetch walks pages starting at 1 until a short page terminates the
// collection, or until a single object is returned in singleObject mode.
// A rate-limit rejection sleeps until the server's reset clock and retries
// the same page; pages already accumulated are kept.
func (c *Client) fetch(ctx context.Context, path string, params map[string]string, singleObject bool) ([]Record, error) {
	var collected []Record
	page := 1

	for {
		reqURL := c.buildURL(path, params, page)

		body, retry, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, err
		}
		if retry {
			continue
		}

		records, object, err := decodeBody(body, reqURL)
		if err != nil {
			return nil, err
		}

		if object {
			if !singleObject {
				return nil, fmt.Errorf("%w: %s", ErrUnexpectedObject, reqURL)
			}
			collected = append(collected, records...)
			return collected, nil
		}

		collected = append(collected, records...)
		c.log.Infof("fetched %s page %d (%d records)", path, page, len(records))

		if len(records) < PerPage {
			return collected, nil
		}
		page++
	}
}

// get performs one request. retry is true when the response was a rate-limit
// rejection and the backoff has already been slept; the caller reissues the
// identical request.
func (c *Client) get(ctx context.Context, reqURL string) (body []byte, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("github: request %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	c.limiter.UpdateFromResponse(resp)

	if Exhausted(resp) {
		// Drain so the connection can be reused across the wait.
		_, _ = io.Copy(io.Discard, resp.Body)
		delay := RetryDelay(resp, c.now())
		c.log.Warnf("rate limit exhausted, waiting %s before retrying %s", delay, reqURL)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("github: read response %s: %w", reqURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, false, &APIError{
			StatusCode: resp.StatusCode,
			Message:    apiMessage(resp.StatusCode, data),
			URL:        reqURL,
		}
	}
	return data, false, nil
}

// buildURL merges the extra query parameters with the pagination parameters.
func (c *Client) buildURL(path string, params map[string]string, page int) string {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(PerPage))
	return c.apiHost + path + "?" + query.Encode()
}

// decodeBody parses a response body into records. object reports that the
// body was a single JSON object rather than a collection.
func decodeBody(body []byte, reqURL string) (records []Record, object bool, err error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false, nil
	}

	switch trimmed[0] {
	case '[':
		var page []Record
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, false, fmt.Errorf("github: decode collection from %s: %w", reqURL, err)
		}
		return page, false, nil
	case '{':
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, false, fmt.Errorf("github: decode object from %s: %w", reqURL, err)
		}
		return []Record{rec}, true, nil
	default:
		return nil, false, fmt.Errorf("github: unexpected response body from %s", reqURL)
	}
}

// apiMessage extracts the server's error message, falling back to the
// standard status text.
func apiMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
