package linkcheck

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HTTPClient matches the Do method of *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// newHTTPClient builds the default client. Redirects are followed up to ten
// hops unless followRedirects is false, in which case 3xx responses are
// reported as redirects.
func newHTTPClient(followRedirects bool) *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !followRedirects || len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// hostThrottle enforces a minimum interval between requests to one host.
type hostThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// wait blocks until the host may be called again or ctx is done.
func (t *hostThrottle) wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	slot := t.next
	if slot.Before(now) {
		slot = now
	}
	t.next = slot.Add(t.interval)
	t.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// domainThrottles hands out one throttle per host.
type domainThrottles struct {
	mu        sync.Mutex
	throttles map[string]*hostThrottle
}

func newDomainThrottles() *domainThrottles {
	return &domainThrottles{throttles: make(map[string]*hostThrottle)}
}

func (d *domainThrottles) forDomain(domain string, interval time.Duration) *hostThrottle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if throttle, ok := d.throttles[domain]; ok {
		return throttle
	}
	throttle := &hostThrottle{interval: interval}
	d.throttles[domain] = throttle
	return throttle
}
