package epias

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	report "epias-report/internal/report/domain"
)

const (
	// DefaultAuthURL is the ticket granting endpoint.
	DefaultAuthURL = "https://giris.epias.com.tr/cas/v1/tickets"
	// DefaultBaseURL is the transparency platform electricity service.
	DefaultBaseURL = "https://seffaflik.epias.com.tr/electricity-service"
	// DefaultRequestTimeout bounds a single request.
	DefaultRequestTimeout = 60 * time.Second
	// DefaultRequestDelay keeps the client under 50 requests per minute.
	DefaultRequestDelay = 1500 * time.Millisecond

	headerTGT = "TGT"
)

// Client is a minimal transparency platform client.
type Client struct {
	authURL string
	baseURL string
	delay   time.Duration
	client  *http.Client
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithAuthURL overrides the ticket endpoint.
func WithAuthURL(authURL string) Option {
	return func(c *Client) {
		if authURL != "" {
			c.authURL = authURL
		}
	}
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithRequestDelay overrides the pause after every data request.
func WithRequestDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.delay = delay
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets the logger used for request warnings.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a client for the given service base url.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("epias: empty base url")
	}
	c := &Client{
		authURL: DefaultAuthURL,
		baseURL: strings.TrimRight(baseURL, "/"),
		delay:   DefaultRequestDelay,
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authenticate exchanges credentials for a ticket granting ticket.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("epias: ticket request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("epias: read ticket: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return strings.TrimSpace(string(body)), nil
}

// FetchResult carries a category's records or the reason it has none.
type FetchResult struct {
	Category report.CategoryID
	Items    []report.Record
	Err      error
	Duration time.Duration
}

// Failed reports whether the request itself failed.
func (r FetchResult) Failed() bool { return r.Err != nil }

// NoData reports a successful request that returned no records.
func (r FetchResult) NoData() bool { return r.Err == nil && len(r.Items) == 0 }

type itemsEnvelope struct {
	Items []report.Record `json:"items"`
	Body  *struct {
		Items []report.Record `json:"items"`
	} `json:"body"`
}

// Fetch requests one category for the range. It never returns an error:
// failures are reported on the result and the request delay is always applied.
func (c *Client) Fetch(ctx context.Context, tgt string, cat report.Category, rng report.Range) FetchResult {
	start := time.Now()
	result := FetchResult{Category: cat.ID}
	defer c.sleep(ctx, c.delay)

	items, err := c.fetch(ctx, tgt, cat, rng)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		if c.logger != nil {
			c.logger.Printf("epias fetch warning: category=%s err=%v", cat.ID, err)
		}
		return result
	}
	result.Items = items
	return result
}

func (c *Client) fetch(ctx context.Context, tgt string, cat report.Category, rng report.Range) ([]report.Record, error) {
	payload := map[string]any{
		"startDate": rng.StartParam(),
		"endDate":   rng.EndParam(),
	}
	for k, v := range cat.Extra {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &FetchError{Endpoint: cat.Endpoint, Reason: ReasonDecode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cat.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Endpoint: cat.Endpoint, Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerTGT, tgt)

	resp, err := c.client.Do(req)
	if err != nil {
		reason := ReasonTransport
		if isTimeout(err) {
			reason = ReasonTimeout
		}
		return nil, &FetchError{Endpoint: cat.Endpoint, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Endpoint: cat.Endpoint, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}
	var envelope itemsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		reason := ReasonDecode
		if isTimeout(err) {
			reason = ReasonTimeout
		}
		return nil, &FetchError{Endpoint: cat.Endpoint, Reason: reason, StatusCode: resp.StatusCode, Err: err}
	}
	if len(envelope.Items) > 0 {
		return envelope.Items, nil
	}
	if envelope.Body != nil && len(envelope.Body.Items) > 0 {
		return envelope.Body.Items, nil
	}
	return nil, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
