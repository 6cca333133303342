// Package ygoprodeck implements a client for the public YGOPRODeck card
// database API (https://db.ygoprodeck.com/api-guide/).
package ygoprodeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/ygo-embed/internal/version"
	"github.com/ramonehamilton/ygo-embed/internal/ygo/cards"
)

const (
	DefaultBaseURL = "https://db.ygoprodeck.com/api/v7"

	// The API allows 20 requests per second; stay well below that.
	defaultRateLimit = 50 * time.Millisecond
	requestTimeout   = 30 * time.Second
	pingTimeout      = 5 * time.Second
	maxRetries       = 3
	initialBackoff   = 1 * time.Second
	maxBackoff       = 16 * time.Second
)

var quantitySuffix = regexp.MustCompile(`(?i)\s*x\s*\d+$`)

// Client represents a YGOPRODeck API client with rate limiting.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
	logger      *slog.Logger
}

// ClientOptions configures the API client.
type ClientOptions struct {
	// BaseURL is the API root. Default: DefaultBaseURL
	BaseURL string

	// RateLimit is the minimum spacing between requests. Default: 50ms
	RateLimit time.Duration

	// Timeout bounds a single HTTP request. Default: 30s
	Timeout time.Duration

	// InitialBackoff is the first retry delay on 429/5xx. Default: 1s
	InitialBackoff time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	Logger *slog.Logger
}

// DefaultClientOptions returns sensible default client options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:        DefaultBaseURL,
		RateLimit:      defaultRateLimit,
		Timeout:        requestTimeout,
		InitialBackoff: initialBackoff,
		UserAgent:      version.UserAgent(),
	}
}

// NewClient creates a new YGOPRODeck API client.
func NewClient(options ClientOptions) *Client {
	defaults := DefaultClientOptions()
	if options.BaseURL == "" {
		options.BaseURL = defaults.BaseURL
	}
	if options.RateLimit <= 0 {
		options.RateLimit = defaults.RateLimit
	}
	if options.Timeout <= 0 {
		options.Timeout = defaults.Timeout
	}
	if options.InitialBackoff <= 0 {
		options.InitialBackoff = defaults.InitialBackoff
	}
	if options.UserAgent == "" {
		options.UserAgent = defaults.UserAgent
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(options.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(options.RateLimit), 1),
		userAgent:   options.UserAgent,
		backoff:     options.InitialBackoff,
		logger:      options.Logger,
	}
}

// GetCardByName retrieves a card by its exact name, falling back to a fuzzy
// name search when no exact match exists.
func (c *Client) GetCardByName(ctx context.Context, name string) (*cards.Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("card name is empty")
	}

	resp, err := c.cardInfo(ctx, url.Values{"name": {name}})
	if err == nil && len(resp.Data) > 0 {
		return resp.Data[0].ToCard(), nil
	}
	if err != nil && !IsNotFound(err) {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}

	c.logger.Debug("Exact lookup missed, retrying with fuzzy name", "name", name)

	resp, err = c.cardInfo(ctx, url.Values{"fname": {name}})
	if err != nil {
		return nil, fmt.Errorf("failed to search card %q: %w", name, err)
	}
	if len(resp.Data) == 0 {
		return nil, &NotFoundError{Query: name}
	}

	return selectFuzzyResult(name, resp.Data).ToCard(), nil
}

// SearchCards performs a fuzzy name search and returns every match.
func (c *Client) SearchCards(ctx context.Context, query string) ([]*cards.Card, error) {
	resp, err := c.cardInfo(ctx, url.Values{"fname": {query}})
	if err != nil {
		if IsNotFound(err) {
			return []*cards.Card{}, nil
		}
		return nil, fmt.Errorf("failed to search cards with query '%s': %w", query, err)
	}

	result := make([]*cards.Card, 0, len(resp.Data))
	for i := range resp.Data {
		result = append(result, resp.Data[i].ToCard())
	}
	return result, nil
}

// LookupCard resolves one name for the request queue. Errors are mapped to
// the card error kinds: unknown names become *cards.NotFoundError, network
// and API failures become *cards.TransportError. Context errors are
// returned unchanged so the caller can tell its own deadline apart.
func (c *Client) LookupCard(ctx context.Context, name string) (*cards.Card, error) {
	query := StripQuantity(name)

	card, err := c.GetCardByName(ctx, query)
	switch {
	case err == nil:
		return card, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case IsNotFound(err):
		return nil, &cards.NotFoundError{Name: query}
	default:
		return nil, &cards.TransportError{Op: "lookup " + query, Err: err}
	}
}

// CheckAvailability reports whether the API answers its version endpoint.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var v []DBVersion
	if err := c.doRequest(ctx, c.baseURL+"/checkDBVer.php", &v); err != nil {
		c.logger.Warn("API availability check failed", "error", err)
		return false
	}
	return true
}

// StripQuantity removes a trailing quantity suffix such as " x3".
func StripQuantity(name string) string {
	return strings.TrimSpace(quantitySuffix.ReplaceAllString(name, ""))
}

// selectFuzzyResult picks the best result of a fuzzy search: an exact
// case-insensitive name match, then a card containing every comma or
// ampersand separated part of the query, then the first result.
func selectFuzzyResult(query string, results []APICard) *APICard {
	lower := strings.ToLower(query)
	for i := range results {
		if strings.ToLower(results[i].Name) == lower {
			return &results[i]
		}
	}

	parts := strings.FieldsFunc(lower, func(r rune) bool { return r == ',' || r == '&' })
	for i := range results {
		name := strings.ToLower(results[i].Name)
		all := true
		for _, part := range parts {
			if !strings.Contains(name, strings.TrimSpace(part)) {
				all = false
				break
			}
		}
		if all {
			return &results[i]
		}
	}

	return &results[0]
}

func (c *Client) cardInfo(ctx context.Context, params url.Values) (*CardInfoResponse, error) {
	reqURL := fmt.Sprintf("%s/cardinfo.php?%s", c.baseURL, params.Encode())

	var resp CardInfoResponse
	if err := c.doRequest(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, reqURL string, result interface{}) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return err
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("failed to read response body: %w", readErr)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to parse JSON response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
			// The API answers 400 with an error body when nothing matches.
			return &NotFoundError{Query: reqURL}

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
			lastErr = &APIError{Status: resp.StatusCode}
			if attempt < maxRetries {
				wait := backoff
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if secs, err := strconv.Atoi(retryAfter); err == nil {
						wait = time.Duration(secs) * time.Second
					}
				}
				c.logger.Debug("Retrying API request", "status", resp.StatusCode, "attempt", attempt+1, "wait", wait)
				if err := sleep(ctx, wait); err != nil {
					return err
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		default:
			apiErr := &APIError{Status: resp.StatusCode}
			_ = json.Unmarshal(body, apiErr)
			return apiErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
