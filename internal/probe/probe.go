package probe

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Getter is the HTTP collaborator used for readiness checks. It returns the
// response status code, or an error when no response was obtained.
type Getter interface {
	Get(ctx context.Context, url string) (int, error)
}

// Result records the outcome of a single readiness attempt. It is ephemeral;
// callers only use it to decide whether to keep polling.
type Result struct {
	Timestamp  time.Time
	URL        string
	Success    bool
	StatusCode int
	ErrKind    string // "" on success; "connection", "canceled", or "status"
}

// Probe polls an HTTP endpoint until it reports ready or a deadline elapses.
// All attempt failures are swallowed: a service refusing connections during
// startup is an expected transient state, not an error.
type Probe struct {
	getter Getter
	// OnResult, when set, observes every attempt (metrics, logging).
	OnResult func(Result)
}

func New(g Getter) *Probe {
	if g == nil {
		g = DefaultGetter()
	}
	return &Probe{getter: g}
}

// WaitUntilReady polls url every interval until a 200 response is observed or
// timeout elapses. The overall deadline is wall-clock; the per-attempt HTTP
// timeout is kept strictly shorter than interval so attempts never overlap.
// The number of attempts never exceeds ceil(timeout/interval).
func (p *Probe) WaitUntilReady(ctx context.Context, url string, timeout, interval time.Duration) bool {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		return false
	}
	maxAttempts := int((timeout + interval - 1) / interval)
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < maxAttempts; i++ {
		if time.Now().After(deadline) {
			return false
		}
		if res := p.attempt(ctx, url, attemptTimeout(interval)); res.Success {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
	return false
}

// CheckOnce performs a single attempt against url with its own timeout.
// Used for one-shot endpoint checks outside the readiness loop.
func (p *Probe) CheckOnce(ctx context.Context, url string, timeout time.Duration) Result {
	return p.attempt(ctx, url, timeout)
}

func (p *Probe) attempt(ctx context.Context, url string, perAttempt time.Duration) Result {
	actx, cancel := context.WithTimeout(ctx, perAttempt)
	defer cancel()

	res := Result{Timestamp: time.Now(), URL: url}
	code, err := p.getter.Get(actx, url)
	switch {
	case err != nil:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.ErrKind = "canceled"
		} else {
			res.ErrKind = "connection"
		}
	case code == http.StatusOK:
		res.Success = true
		res.StatusCode = code
	default:
		res.StatusCode = code
		res.ErrKind = "status"
	}
	if p.OnResult != nil {
		p.OnResult(res)
	}
	return res
}

// attemptTimeout keeps each HTTP request strictly shorter than the poll
// interval so a hung connection cannot overlap the next attempt.
func attemptTimeout(interval time.Duration) time.Duration {
	t := interval * 9 / 10
	if t <= 0 {
		t = interval
	}
	return t
}

// httpGetter is the production Getter backed by net/http.
type httpGetter struct {
	client *http.Client
}

// DefaultGetter returns a Getter using a dedicated http.Client. Per-attempt
// timeouts are applied via request contexts, not the client timeout.
func DefaultGetter() Getter {
	return &httpGetter{client: &http.Client{}}
}

func (g *httpGetter) Get(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
