package billtext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is where the bill-data endpoint is served in local development.
const DefaultBaseURL = "http://localhost:9002"

// DefaultUserAgent is the User-Agent header sent with requests.
const DefaultUserAgent = "legiscompare-billtext/1.0"

// DefaultRateLimit is the minimum interval between requests.
const DefaultRateLimit = 200 * time.Millisecond

// FetchPath is the bill-data endpoint path.
const FetchPath = "/api/fetch-bill-data"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 5 * 1024 * 1024

// ClientConfig holds configuration for the Client.
type ClientConfig struct {
	// BaseURL is the scheme and host serving FetchPath.
	BaseURL string

	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client

	// RateLimit is the minimum interval between requests.
	RateLimit time.Duration

	// UserAgent is the User-Agent header.
	UserAgent string
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		RateLimit:  DefaultRateLimit,
		UserAgent:  DefaultUserAgent,
	}
}

// Client fetches bill text from a bill-data HTTP endpoint.
type Client struct {
	config       ClientConfig
	lastRequest  time.Time
	lastReqMutex sync.Mutex
}

// NewClient creates a new client with the given configuration.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.RateLimit == 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{config: config}
}

// fetchResponse is the endpoint's JSON body; exactly one field is set.
type fetchResponse struct {
	BillText string `json:"billText"`
	Error    string `json:"error"`
}

// rateLimit waits until the configured interval has passed since the last request.
func (c *Client) rateLimit(ctx context.Context) error {
	c.lastReqMutex.Lock()
	defer c.lastReqMutex.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.config.RateLimit {
		timer := time.NewTimer(c.config.RateLimit - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

// FetchBillText requests the text for a bill. Empty parameters are omitted
// from the query string.
func (c *Client) FetchBillText(ctx context.Context, query Query) (string, error) {
	if err := c.rateLimit(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	if query.Congress != "" {
		params.Set("congress", query.Congress)
	}
	if query.BillNumber != "" {
		params.Set("billNumber", query.BillNumber)
	}
	if query.Keyword != "" {
		params.Set("keyword", query.Keyword)
	}

	requestURL := c.config.BaseURL + FetchPath
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var decoded fetchResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != "" {
			return "", fmt.Errorf("bill data request failed: %s", decoded.Error)
		}
		return "", fmt.Errorf("bill data request failed: %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if decoded.BillText == "" {
		return "", ErrNotFound
	}

	return decoded.BillText, nil
}
