// Package linkcheck verifies that synthesized citation URLs resolve, with
// per-domain rate limiting, retries, a TTL cache and a report of outcomes.
package linkcheck

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/coolbeans/legiscompare/pkg/citation"
)

// Status is the outcome of checking one link.
type Status string

const (
	StatusValid    Status = "valid"
	StatusRedirect Status = "redirect"
	StatusBroken   Status = "broken"
	StatusTimeout  Status = "timeout"
	StatusError    Status = "error"
	StatusSkipped  Status = "skipped"
)

// Statuses lists every status in report order.
func Statuses() []Status {
	return []Status{StatusValid, StatusRedirect, StatusBroken, StatusTimeout, StatusError, StatusSkipped}
}

// Link is a URL to check and the citation it was built from.
type Link struct {
	URL      string        `json:"url"`
	Citation string        `json:"citation,omitempty"`
	Kind     citation.Kind `json:"kind,omitempty"`
}

// LinksFromCitations returns one Link per distinct URL, in first-seen order.
// Unlinked citations are skipped.
func LinksFromCitations(citations []citation.Citation) []Link {
	seen := make(map[string]bool)
	links := make([]Link, 0, len(citations))
	for _, c := range citations {
		if !c.Linked() || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		links = append(links, Link{URL: c.URL, Citation: c.RawText, Kind: c.Kind})
	}
	return links
}

// Result is the outcome of checking one link.
type Result struct {
	Link

	Status      Status    `json:"status"`
	StatusCode  int       `json:"status_code,omitempty"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts"`
	ResponseMs  int64     `json:"response_ms"`
	Domain      string    `json:"domain"`
	CheckedAt   time.Time `json:"checked_at"`
	Cached      bool      `json:"cached,omitempty"`
}

// OK reports whether the link resolved.
func (r *Result) OK() bool {
	return r.Status == StatusValid || r.Status == StatusRedirect
}

// retryable reports whether another attempt could change the outcome.
func (r *Result) retryable() bool {
	return r.Status == StatusTimeout || r.Status == StatusError ||
		r.StatusCode == 429 || r.StatusCode >= 500
}

// DomainConfig overrides the checker defaults for one host.
type DomainConfig struct {
	RateLimit  time.Duration `yaml:"rate_limit" json:"rate_limit"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	Skip       bool          `yaml:"skip" json:"skip"`
}

// Config controls a Checker.
type Config struct {
	// RateLimit is the minimum interval between requests to one host.
	RateLimit time.Duration

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a timeout, transport
	// error, 429 or 5xx response.
	MaxRetries int

	// RetryBackoff is multiplied by the square of the attempt number.
	RetryBackoff time.Duration

	// Concurrency caps the number of hosts checked at once.
	Concurrency int

	UserAgent       string
	CacheTTL        time.Duration
	FollowRedirects bool

	// Domains holds per-host overrides keyed by host name.
	Domains map[string]DomainConfig
}

// DefaultConfig returns conservative defaults for government hosts.
func DefaultConfig() Config {
	return Config{
		RateLimit:       500 * time.Millisecond,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    500 * time.Millisecond,
		Concurrency:     5,
		UserAgent:       "legiscompare-linkcheck/1.0",
		CacheTTL:        time.Hour,
		FollowRedirects: true,
		Domains:         make(map[string]DomainConfig),
	}
}

// forDomain merges the host override, if any, over the defaults.
func (c Config) forDomain(domain string) DomainConfig {
	resolved := DomainConfig{
		RateLimit:  c.RateLimit,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
	}
	override, ok := c.Domains[domain]
	if !ok {
		return resolved
	}
	if override.RateLimit > 0 {
		resolved.RateLimit = override.RateLimit
	}
	if override.Timeout > 0 {
		resolved.Timeout = override.Timeout
	}
	if override.MaxRetries > 0 {
		resolved.MaxRetries = override.MaxRetries
	}
	resolved.Skip = override.Skip
	return resolved
}

// DomainStats aggregates results for one host.
type DomainStats struct {
	Domain        string         `json:"domain"`
	Total         int            `json:"total"`
	Counts        map[Status]int `json:"counts"`
	AvgResponseMs int64          `json:"avg_response_ms"`
}

// Report is the outcome of one Check call.
type Report struct {
	Total       int                     `json:"total"`
	Counts      map[Status]int          `json:"counts"`
	Domains     map[string]*DomainStats `json:"domains"`
	Results     []*Result               `json:"results"`
	Broken      []*Result               `json:"broken"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt time.Time               `json:"completed_at"`
	DurationMs  int64                   `json:"duration_ms"`
}

// NewReport creates an empty report.
func NewReport(startedAt time.Time) *Report {
	return &Report{
		Counts:    make(map[Status]int),
		Domains:   make(map[string]*DomainStats),
		Results:   make([]*Result, 0),
		Broken:    make([]*Result, 0),
		StartedAt: startedAt,
	}
}

// Add records a result.
func (r *Report) Add(result *Result) {
	r.Results = append(r.Results, result)
	r.Total++
	r.Counts[result.Status]++
	if !result.OK() && result.Status != StatusSkipped {
		r.Broken = append(r.Broken, result)
	}

	stats, ok := r.Domains[result.Domain]
	if !ok {
		stats = &DomainStats{Domain: result.Domain, Counts: make(map[Status]int)}
		r.Domains[result.Domain] = stats
	}
	stats.Total++
	stats.Counts[result.Status]++
	if result.ResponseMs > 0 {
		stats.AvgResponseMs += (result.ResponseMs - stats.AvgResponseMs) / int64(stats.Total)
	}
}

// finish stamps the completion time and sorts results by URL.
func (r *Report) finish(completedAt time.Time) {
	r.CompletedAt = completedAt
	r.DurationMs = completedAt.Sub(r.StartedAt).Milliseconds()
	sort.SliceStable(r.Results, func(i, j int) bool { return r.Results[i].URL < r.Results[j].URL })
	sort.SliceStable(r.Broken, func(i, j int) bool { return r.Broken[i].URL < r.Broken[j].URL })
}

// SuccessRate is the percentage of checked (not skipped) links that resolved.
func (r *Report) SuccessRate() float64 {
	checked := r.Total - r.Counts[StatusSkipped]
	if checked == 0 {
		return 100.0
	}
	return float64(r.Counts[StatusValid]+r.Counts[StatusRedirect]) / float64(checked) * 100.0
}

// ToJSON serializes the report.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToMarkdown renders the report as Markdown.
func (r *Report) ToMarkdown() string {
	var sb strings.Builder

	sb.WriteString("# Citation Link Report\n\n")
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total**: %d\n", r.Total))
	for _, status := range Statuses() {
		sb.WriteString(fmt.Sprintf("- **%s**: %d\n", titleStatus(status), r.Counts[status]))
	}
	sb.WriteString(fmt.Sprintf("- **Success Rate**: %.1f%%\n", r.SuccessRate()))
	sb.WriteString(fmt.Sprintf("- **Duration**: %dms\n\n", r.DurationMs))

	if len(r.Domains) > 0 {
		sb.WriteString("## Domains\n\n")
		sb.WriteString("| Domain | Total | Valid | Broken | Avg Response |\n")
		sb.WriteString("|--------|-------|-------|--------|--------------|\n")
		for _, domain := range r.sortedDomains() {
			stats := r.Domains[domain]
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %dms |\n",
				domain, stats.Total, stats.Counts[StatusValid]+stats.Counts[StatusRedirect],
				stats.Total-stats.Counts[StatusValid]-stats.Counts[StatusRedirect]-stats.Counts[StatusSkipped],
				stats.AvgResponseMs))
		}
		sb.WriteString("\n")
	}

	if len(r.Broken) > 0 {
		sb.WriteString("## Broken Links\n\n")
		sb.WriteString("| Citation | URL | Status | Error |\n")
		sb.WriteString("|----------|-----|--------|-------|\n")
		for _, result := range r.Broken {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				dashIfEmpty(result.Citation), result.URL, result.Status, dashIfEmpty(result.describeError())))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// String returns a plain text summary.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Citation Link Report\n")
	sb.WriteString("====================\n\n")
	sb.WriteString(fmt.Sprintf("%-14s %d\n", "Total:", r.Total))
	for _, status := range Statuses() {
		sb.WriteString(fmt.Sprintf("%-14s %d\n", titleStatus(status)+":", r.Counts[status]))
	}
	sb.WriteString(fmt.Sprintf("%-14s %.1f%%\n", "Success rate:", r.SuccessRate()))

	if len(r.Broken) > 0 {
		sb.WriteString(fmt.Sprintf("\nBroken links (%d):\n", len(r.Broken)))
		for _, result := range r.Broken {
			sb.WriteString(fmt.Sprintf("  - %s: %s (%s)\n", result.URL, result.Status, result.describeError()))
		}
	}

	return sb.String()
}

func (r *Report) sortedDomains() []string {
	domains := make([]string, 0, len(r.Domains))
	for domain := range r.Domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

func (r *Result) describeError() string {
	if r.Error == "" && r.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", r.StatusCode)
	}
	return r.Error
}

func titleStatus(status Status) string {
	s := string(status)
	return strings.ToUpper(s[:1]) + s[1:]
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// ExtractDomain returns the host of a URL, or "" when it cannot be parsed.
func ExtractDomain(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsedURL.Host
}
