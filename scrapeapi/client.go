// Package scrapeapi is the client of the listing-scraping service, which
// turns a listing page URL into a structured JSON payload.
package scrapeapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"rental-normalizer/utils"
)

// ErrNotFound is returned when the scraper reports the listing page gone.
var ErrNotFound = errors.New("listing page not found")

// StatusError is a non-200 response other than 404.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scraper returned HTTP %d", e.Code)
}

// Client calls GET {baseURL}/scrape?url=... .
type Client struct {
	baseURL string
	http    *http.Client
	retry   *utils.RetryConfig
	logger  *slog.Logger
}

// NewClient returns a client with a per-request timeout and retry on
// transport errors and 5xx responses.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
			ShouldRetry: retryable,
		},
		logger: logger,
	}
}

// retryable rejects outcomes another attempt cannot change.
func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPayload) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}

// Fetch scrapes one listing page and returns the validated payload.
func (c *Client) Fetch(ctx context.Context, listingURL string) (map[string]any, error) {
	endpoint := c.baseURL + "/scrape?" + url.Values{"url": {listingURL}}.Encode()

	var payload map[string]any
	err := c.retry.Do(ctx, "scrape "+listingURL, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode != http.StatusOK:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &StatusError{Code: resp.StatusCode}
		}

		payload, err = DecodePayload(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("[scrapeapi] fetched listing", "url", listingURL, "fields", len(payload))
	return payload, nil
}
