package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// RateLimitedClient wraps http.Client with rate limiting
type RateLimitedClient struct {
	client      *http.Client
	rateLimiter *rateLimiter
	maxRetries  int
	backoffUnit time.Duration
}

type rateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	// Convert requests/min to token bucket
	// 600 req/min = 10 req/sec, refill 1 token every 100ms
	refillRate := time.Minute / time.Duration(requestsPerMinute)
	burst := max(requestsPerMinute/6, 1) // Max burst of 10 seconds
	return &rateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		rl.mu.Lock()

		// Refill tokens based on time elapsed
		now := time.Now()
		elapsed := now.Sub(rl.lastRefill)
		tokensToAdd := int(elapsed / rl.refillRate)
		if tokensToAdd > 0 {
			rl.tokens = min(rl.tokens+tokensToAdd, rl.maxTokens)
			rl.lastRefill = now
		}

		// If tokens available, consume one and return
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		// Release lock before sleeping
		waitTime := rl.refillRate
		rl.mu.Unlock()
		if err := sleep(ctx, waitTime); err != nil {
			return err
		}
	}
}

// NewRateLimitedClient creates a client limited to requestsPerMinute
func NewRateLimitedClient(requestsPerMinute int, timeout time.Duration, maxRetries int) *RateLimitedClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimitedClient{
		client: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: newRateLimiter(requestsPerMinute),
		maxRetries:  maxRetries,
		backoffUnit: 100 * time.Millisecond,
	}
}

// Do executes an HTTP request with rate limiting and retries. 429 and 5xx
// responses are retried with exponential backoff; other statuses are
// returned to the caller.
func (c *RateLimitedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		// Handle rate limit responses (429)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (429)")
			if err := sleep(ctx, 10*c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		// Handle server errors with retry
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Get performs a rate-limited GET request and returns the body and headers
// of a 200 response.
func (c *RateLimitedClient) Get(ctx context.Context, url string, headers map[string]string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp.Header, &httpError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	return body, resp.Header, err
}

func (c *RateLimitedClient) backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * c.backoffUnit
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// httpError represents an HTTP error with status code
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
