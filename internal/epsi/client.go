// Package epsi fetches course schedules from the EPSI timetable API.
package epsi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/enzomtp/edtbot/internal/model"
)

// Typed failures after retry exhaustion, so callers can tell "could
// not connect" apart from "server answered with an error status".
var (
	ErrUnavailable = errors.New("schedule service unreachable")
	ErrUpstream    = errors.New("schedule service returned an error")
)

const (
	defaultBaseURL     = "https://epsi.enzomtp.party"
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
	requestTimeout     = 30 * time.Second
)

// PathDate formats a date the way the API expects it in URL paths.
func PathDate(t time.Time) string {
	return t.Format("02-01-2006")
}

// Client talks to the timetable API with retry and linear backoff.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
}

// Option tweaks client construction, used mainly by tests.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// NewClient creates a schedule API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDay returns the flattened schedule for a single day.
func (c *Client) FetchDay(ctx context.Context, username string, date time.Time) ([]model.Course, error) {
	u := fmt.Sprintf("%s/%s?user=%s", c.baseURL, PathDate(date), url.QueryEscape(username))
	return c.fetch(ctx, u)
}

// FetchWeek returns the flattened schedule for the week containing date.
func (c *Client) FetchWeek(ctx context.Context, username string, date time.Time) ([]model.Course, error) {
	u := fmt.Sprintf("%s/week/%s?user=%s", c.baseURL, PathDate(date), url.QueryEscape(username))
	return c.fetch(ctx, u)
}

// FetchRange returns the flattened schedule between begin and end
// (both DD/MM/YYYY, as typed by the user). Empty bounds mean the API
// default period.
func (c *Client) FetchRange(ctx context.Context, username, begin, end string) ([]model.Course, error) {
	u := fmt.Sprintf("%s/?user=%s", c.baseURL, url.QueryEscape(username))
	if begin != "" && end != "" {
		u += fmt.Sprintf("&begin=%s&end=%s", url.QueryEscape(begin), url.QueryEscape(end))
	}
	return c.fetch(ctx, u)
}

// fetch performs the request with up to maxAttempts tries, waiting
// attempt*baseDelay between them, then flattens the payload.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]model.Course, error) {
	var days [][]model.Course
	var lastErr error

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * c.baseDelay, false
	}))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return retry.RetryableError(lastErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
			return retry.RetryableError(lastErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(&days); err != nil {
			lastErr = fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
			return retry.RetryableError(lastErr)
		}
		lastErr = nil
		return nil
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return Flatten(days), nil
}

// Flatten merges the per-day arrays into one ordered slice. A day
// contributes only if at least one of its rows has a name; fully
// empty days are dropped entirely.
func Flatten(days [][]model.Course) []model.Course {
	var out []model.Course
	for _, day := range days {
		named := false
		for _, course := range day {
			if course.Named() {
				named = true
				break
			}
		}
		if named {
			out = append(out, day...)
		}
	}
	return out
}
