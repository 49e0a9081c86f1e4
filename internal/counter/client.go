// Package counter talks to the endpoint that increments the visitor counter.
package counter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

// FieldName is the response field holding the updated count.
const FieldName = "visitor-counter"

const maxBodySize = 1 << 20

// maxExactFloat is the largest magnitude below which every float64 integer is exact.
const maxExactFloat = 1 << 53

var (
	ErrMalformedPayload = errors.New("response is not valid JSON")
	ErrMissingField     = errors.New("response has no " + FieldName + " field")
	ErrInvalidCount     = errors.New(FieldName + " is not an integer")
)

type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Increase sends one empty POST to the endpoint and returns the count it
// reports. The status code alone never fails the call; the body decides.
func (c *Client) Increase(ctx context.Context) (models.VisitorCount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, fmt.Errorf("read response from %s: %w", c.endpoint, err)
	}

	count, err := ParseCount(body)
	if err != nil {
		return 0, fmt.Errorf("post %s: status %d: %w", c.endpoint, resp.StatusCode, err)
	}
	return count, nil
}

// ParseCount extracts the visitor-counter field from a response payload.
func ParseCount(body []byte) (models.VisitorCount, error) {
	if !gjson.ValidBytes(body) {
		return 0, ErrMalformedPayload
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return 0, ErrMissingField
	}

	field := root.Get(FieldName)
	if !field.Exists() {
		return 0, ErrMissingField
	}
	if field.Type != gjson.Number {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidCount, field.Raw)
	}
	if n, err := strconv.ParseInt(field.Raw, 10, 64); err == nil {
		return models.VisitorCount(n), nil
	}
	// 42.0 and 4.2e1 are the same integer as far as the page is concerned.
	f, err := strconv.ParseFloat(field.Raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidCount, field.Raw)
	}
	return models.VisitorCount(int64(f)), nil
}
