package fairvalue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// ErrResolverUnavailable marks a devig call that failed or returned
// something unusable. Resolver recovers from it with a local estimate.
var ErrResolverUnavailable = errors.New("devig service unavailable")

const maxDevigBody = 64 << 10

var firstInt = regexp.MustCompile(`[-+]?\d+`)

// Devigger returns the fair combined American price for a set of leg odds.
type Devigger interface {
	Devig(ctx context.Context, legOdds []int) (int, error)
}

// Client calls an HTTP devig service with GET {baseURL}?odds=-110,-110,150.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a devig client. Each call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Devig sends the sorted leg odds and reads the first integer in the reply.
func (c *Client) Devig(ctx context.Context, legOdds []int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("%w: bad url: %v", ErrResolverUnavailable, err)
	}
	q := u.Query()
	q.Set("odds", Key(legOdds))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: creating request: %v", ErrResolverUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResolverUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDevigBody))
	if err != nil {
		return 0, fmt.Errorf("%w: reading body: %v", ErrResolverUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: status %d", ErrResolverUnavailable, resp.StatusCode)
	}

	return ParseDevigResponse(body)
}

// ParseDevigResponse extracts the first optionally signed integer token.
func ParseDevigResponse(body []byte) (int, error) {
	tok := firstInt.Find(body)
	if tok == nil {
		return 0, fmt.Errorf("%w: no odds in response", ErrResolverUnavailable)
	}
	n, err := strconv.Atoi(string(tok))
	if err != nil {
		return 0, fmt.Errorf("%w: parsing %q: %v", ErrResolverUnavailable, tok, err)
	}
	return n, nil
}
