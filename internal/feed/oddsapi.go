package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultOddsAPIBaseURL = "https://api.the-odds-api.com"
	apiVersion            = "v4"
	requestsPerMinute     = 30
	requestTimeout        = 10 * time.Second
	maxRetries            = 3
)

// OddsAPIClient reads boards from The Odds API, keeping only the sharp and
// boosted bookmakers.
type OddsAPIClient struct {
	apiKey  string
	baseURL string
	sharp   string
	boosted string
	client  *RateLimitedClient

	mu        sync.RWMutex
	remaining int
	used      int
}

// NewOddsAPIClient creates a client. An empty baseURL uses the public API.
func NewOddsAPIClient(apiKey, baseURL, sharpBook, boostedBook string) *OddsAPIClient {
	if baseURL == "" {
		baseURL = DefaultOddsAPIBaseURL
	}
	return &OddsAPIClient{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		sharp:     sharpBook,
		boosted:   boostedBook,
		client:    NewRateLimitedClient(requestsPerMinute, requestTimeout, maxRetries),
		remaining: -1,
	}
}

// Events fetches featured markets (h2h, spreads, totals) for sport. Events
// missing either bookmaker are dropped.
func (c *OddsAPIClient) Events(ctx context.Context, sport string) ([]Event, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("bookmakers", c.sharp+","+c.boosted)
	params.Set("markets", "h2h,spreads,totals")
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	endpoint := fmt.Sprintf("%s/%s/sports/%s/odds?%s", c.baseURL, apiVersion, url.PathEscape(sport), params.Encode())

	body, headers, err := c.client.Get(ctx, endpoint, nil)
	c.updateQuota(headers)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s odds: %v", ErrFeedUnavailable, sport, err)
	}

	var apiResp []oddsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: parse %s odds: %v", ErrFeedUnavailable, sport, err)
	}

	return c.parseOddsResponse(apiResp), nil
}

// Quota returns the remaining and used request counts from the last
// response. Remaining is -1 before the first call.
func (c *OddsAPIClient) Quota() (remaining, used int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remaining, c.used
}

func (c *OddsAPIClient) updateQuota(headers http.Header) {
	if headers == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, err := strconv.Atoi(headers.Get("x-requests-remaining")); err == nil {
		c.remaining = v
	}
	if v, err := strconv.Atoi(headers.Get("x-requests-used")); err == nil {
		c.used = v
	}
}

func (c *OddsAPIClient) parseOddsResponse(apiResp []oddsResponse) []Event {
	events := make([]Event, 0, len(apiResp))

	for _, ev := range apiResp {
		start, err := time.Parse(time.RFC3339, ev.CommenceTime)
		if err != nil {
			start = time.Time{}
		}

		e := Event{
			ID:        ev.ID,
			Sport:     ev.SportKey,
			HomeTeam:  ev.HomeTeam,
			AwayTeam:  ev.AwayTeam,
			StartTime: start,
			Markets:   make(map[string]MarketPrices),
		}

		var haveSharp, haveBoosted bool
		for _, bm := range ev.Bookmakers {
			var sharp bool
			switch bm.Key {
			case c.sharp:
				sharp, haveSharp = true, true
			case c.boosted:
				haveBoosted = true
			default:
				continue
			}

			for _, m := range bm.Markets {
				name, ok := marketNames[m.Key]
				if !ok {
					continue
				}
				prices := e.Markets[name]
				if prices.Sharp == nil {
					prices = MarketPrices{Sharp: map[string]int{}, Boosted: map[string]int{}}
				}
				for _, o := range m.Outcomes {
					side := outcomeSide(ev, m.Key, o)
					if side == "" {
						continue
					}
					if sharp {
						prices.Sharp[side] = o.Price
					} else {
						prices.Boosted[side] = o.Price
					}
				}
				e.Markets[name] = prices
			}
		}

		if haveSharp && haveBoosted {
			events = append(events, e)
		}
	}
	return events
}

var marketNames = map[string]string{
	"h2h":     "moneyline",
	"spreads": "spread",
	"totals":  "total",
}

// outcomeSide maps an API outcome to a side key: "home", "away",
// "home_-1.5", "over_8.5". Draws and unknown names are skipped.
func outcomeSide(ev oddsResponse, marketKey string, o outcome) string {
	var base string
	switch {
	case o.Name == ev.HomeTeam:
		base = "home"
	case o.Name == ev.AwayTeam:
		base = "away"
	case strings.EqualFold(o.Name, "over"):
		base = "over"
	case strings.EqualFold(o.Name, "under"):
		base = "under"
	default:
		return ""
	}

	if marketKey == "h2h" || o.Point == nil {
		return base
	}
	point := strconv.FormatFloat(*o.Point, 'f', -1, 64)
	if marketKey == "spreads" && *o.Point > 0 {
		point = "+" + point
	}
	return base + "_" + point
}

// API response structures matching The Odds API JSON format

type oddsResponse struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []market `json:"markets"`
}

type market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}
