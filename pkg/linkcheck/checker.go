package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coolbeans/legiscompare/pkg/citation"
)

// Observer receives the status of every checked link.
type Observer interface {
	ObserveLinkCheck(status string)
}

// ProgressFunc is called after each link with the number done so far.
type ProgressFunc func(done, total int, result *Result)

// Checker checks citation URLs. A Checker is safe for concurrent use and
// shares its cache and host throttles across calls.
type Checker struct {
	config    Config
	client    HTTPClient
	cache     *resultCache
	throttles *domainThrottles
	logger    *zap.Logger
	observer  Observer
	progress  ProgressFunc
	now       func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithObserver sets the observer.
func WithObserver(observer Observer) Option {
	return func(c *Checker) {
		c.observer = observer
	}
}

// WithProgress sets a progress callback.
func WithProgress(progress ProgressFunc) Option {
	return func(c *Checker) {
		c.progress = progress
	}
}

// NewChecker creates a checker. Zero values in config fall back to
// DefaultConfig.
func NewChecker(config Config, opts ...Option) *Checker {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Concurrency < 1 {
		config.Concurrency = defaults.Concurrency
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	c := &Checker{
		config:    config,
		client:    newHTTPClient(config.FollowRedirects),
		throttles: newDomainThrottles(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = newResultCache(config.CacheTTL, c.now)
	return c
}

// CheckCitations checks the distinct URLs of the linked citations.
func (c *Checker) CheckCitations(ctx context.Context, citations []citation.Citation) *Report {
	return c.Check(ctx, LinksFromCitations(citations))
}

// Check checks links, one host at a time per worker, and returns a report
// with exactly one result per distinct URL. Links left unchecked when ctx is
// cancelled are reported as errors.
func (c *Checker) Check(ctx context.Context, links []Link) *Report {
	report := NewReport(c.now())
	links = dedupe(links)
	if len(links) == 0 {
		report.finish(c.now())
		return report
	}

	domains, groups := groupByDomain(links)
	results := make(chan *Result, len(links))
	semaphore := make(chan struct{}, c.config.Concurrency)
	var wg sync.WaitGroup

	for _, domain := range domains {
		wg.Add(1)
		go func(domain string, group []Link) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				for _, link := range group {
					results <- c.cancelled(link, domain, ctx.Err())
				}
				return
			}

			domainConfig := c.config.forDomain(domain)
			for _, link := range group {
				if ctx.Err() != nil {
					results <- c.cancelled(link, domain, ctx.Err())
					continue
				}
				results <- c.checkLink(ctx, link, domain, domainConfig)
			}
		}(domain, groups[domain])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		report.Add(result)
		if c.observer != nil {
			c.observer.ObserveLinkCheck(string(result.Status))
		}
		if c.progress != nil {
			c.progress(report.Total, len(links), result)
		}
	}

	report.finish(c.now())
	c.logger.Info("link check complete",
		zap.Int("total", report.Total),
		zap.Int("broken", len(report.Broken)),
		zap.Int64("duration_ms", report.DurationMs))
	return report
}

// CheckURL checks a single URL.
func (c *Checker) CheckURL(ctx context.Context, rawURL string) *Result {
	domain := ExtractDomain(rawURL)
	result := c.checkLink(ctx, Link{URL: rawURL}, domain, c.config.forDomain(domain))
	if c.observer != nil {
		c.observer.ObserveLinkCheck(string(result.Status))
	}
	return result
}

// ClearCache empties the result cache.
func (c *Checker) ClearCache() {
	c.cache.clear()
}

// CacheSize returns the number of cached results, expired ones included.
func (c *Checker) CacheSize() int {
	return c.cache.len()
}

// PruneCache drops expired results and returns how many were dropped.
func (c *Checker) PruneCache() int {
	return c.cache.prune()
}

func (c *Checker) checkLink(ctx context.Context, link Link, domain string, domainConfig DomainConfig) *Result {
	if domain == "" {
		return &Result{Link: link, Status: StatusError, Error: "invalid URL", CheckedAt: c.now()}
	}
	if domainConfig.Skip {
		return &Result{Link: link, Status: StatusSkipped, Domain: domain, CheckedAt: c.now()}
	}

	if cached, ok := c.cache.get(link.URL); ok {
		cached.Link = link
		cached.Cached = true
		return &cached
	}

	var result *Result
	for attempt := 1; attempt <= domainConfig.MaxRetries+1; attempt++ {
		if attempt > 1 {
			backoff := time.Duration((attempt-1)*(attempt-1)) * c.config.RetryBackoff
			if err := sleepContext(ctx, backoff); err != nil {
				return c.cancelled(link, domain, err)
			}
		}

		if err := c.throttles.forDomain(domain, domainConfig.RateLimit).wait(ctx); err != nil {
			return c.cancelled(link, domain, err)
		}

		result = c.request(ctx, link, domain, domainConfig.Timeout)
		result.Attempts = attempt
		if !result.retryable() || ctx.Err() != nil {
			break
		}
		c.logger.Debug("retrying link",
			zap.String("url", link.URL),
			zap.String("status", string(result.Status)),
			zap.Int("attempt", attempt))
	}

	if ctx.Err() == nil {
		c.cache.set(link.URL, *result)
	}
	c.logger.Debug("link checked",
		zap.String("url", link.URL),
		zap.String("status", string(result.Status)),
		zap.Int("status_code", result.StatusCode))
	return result
}

// request sends a HEAD request, falling back to GET for hosts that reject
// HEAD.
func (c *Checker) request(ctx context.Context, link Link, domain string, timeout time.Duration) *Result {
	started := c.now()
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := &Result{Link: link, Domain: domain}
	finish := func() *Result {
		result.CheckedAt = c.now()
		result.ResponseMs = result.CheckedAt.Sub(started).Milliseconds()
		return result
	}

	response, err := c.do(reqCtx, http.MethodHead, link.URL)
	if err == nil && (response.StatusCode == http.StatusMethodNotAllowed || response.StatusCode == http.StatusNotImplemented) {
		response.Body.Close()
		response, err = c.do(reqCtx, http.MethodGet, link.URL)
	}
	if err != nil {
		switch {
		case ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			result.Status = StatusTimeout
			result.Error = "request timed out"
		default:
			result.Status = StatusError
			result.Error = err.Error()
		}
		return finish()
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))

	result.StatusCode = response.StatusCode
	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		result.Status = StatusValid
	case response.StatusCode >= 300 && response.StatusCode < 400:
		result.Status = StatusRedirect
		result.RedirectURL = response.Header.Get("Location")
	case response.StatusCode >= 400:
		result.Status = StatusBroken
	default:
		result.Status = StatusError
		result.Error = fmt.Sprintf("unexpected status code: %d", response.StatusCode)
	}
	return finish()
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	return c.client.Do(req)
}

func (c *Checker) cancelled(link Link, domain string, err error) *Result {
	return &Result{
		Link:      link,
		Status:    StatusError,
		Error:     fmt.Sprintf("cancelled: %v", err),
		Domain:    domain,
		CheckedAt: c.now(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dedupe(links []Link) []Link {
	seen := make(map[string]bool, len(links))
	unique := make([]Link, 0, len(links))
	for _, link := range links {
		if link.URL == "" || seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		unique = append(unique, link)
	}
	return unique
}

// groupByDomain groups links by host, keeping first-seen host order.
func groupByDomain(links []Link) ([]string, map[string][]Link) {
	var order []string
	groups := make(map[string][]Link)
	for _, link := range links {
		domain := ExtractDomain(link.URL)
		if _, ok := groups[domain]; !ok {
			order = append(order, domain)
		}
		groups[domain] = append(groups[domain], link)
	}
	return order, groups
}
