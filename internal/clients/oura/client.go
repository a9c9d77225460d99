package oura

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/rs/zerolog"
)

// Default endpoints of the Oura cloud.
const (
	DefaultAPIBaseURL = "https://api.ouraring.com/v2"
	DefaultTokenURL   = "https://api.ouraring.com/oauth/token"
)

// ClientConfig configures the API client.
type ClientConfig struct {
	BaseURL     string
	Credentials oauth.Credentials
	Timeout     time.Duration
}

// Client for the Oura v2 API. Access tokens are obtained from the refresh
// token on first use and reused until they expire.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
}

// NewClient creates an API client. It returns oauth.ErrNotConfigured when the
// refresh credentials are incomplete.
func NewClient(cfg ClientConfig, log zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAPIBaseURL
	}
	if cfg.Credentials.TokenURL == "" {
		cfg.Credentials.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient, err := oauth.NewHTTPClient(cfg.Credentials, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
		log:     log.With().Str("client", "oura-api").Logger(),
		now:     time.Now,
	}, nil
}

type collection[T any] struct {
	Data      []T     `json:"data"`
	NextToken *string `json:"next_token"`
}

// FetchRecent returns the last days of sleep, readiness and activity, ending today.
// Any endpoint failing fails the whole fetch.
func (c *Client) FetchRecent(ctx context.Context, days int) (*Data, error) {
	now := c.now()
	end := now.Format("2006-01-02")
	start := now.AddDate(0, 0, -days).Format("2006-01-02")

	c.log.Debug().Str("start", start).Str("end", end).Msg("Fetching Oura data")

	sleep, err := fetchCollection[SleepRecord](ctx, c, "usercollection/sleep", start, end)
	if err != nil {
		return nil, err
	}
	dailySleep, err := fetchCollection[DailySleepRecord](ctx, c, "usercollection/daily_sleep", start, end)
	if err != nil {
		return nil, err
	}
	readiness, err := fetchCollection[ReadinessRecord](ctx, c, "usercollection/daily_readiness", start, end)
	if err != nil {
		return nil, err
	}
	activity, err := fetchCollection[ActivityRecord](ctx, c, "usercollection/daily_activity", start, end)
	if err != nil {
		return nil, err
	}

	data := &Data{
		Sleep:      sleep,
		DailySleep: dailySleep,
		Readiness:  readiness,
		Activity:   activity,
		FetchedAt:  now,
		Source:     SourceAPI,
	}

	c.log.Info().
		Int("sleep", len(sleep)).
		Int("daily_sleep", len(dailySleep)).
		Int("readiness", len(readiness)).
		Int("activity", len(activity)).
		Msg("Fetched Oura data")

	return data, nil
}

// fetchCollection reads every page of a date-ranged collection endpoint.
func fetchCollection[T any](ctx context.Context, c *Client, endpoint, start, end string) ([]T, error) {
	var out []T
	nextToken := ""

	for {
		params := url.Values{}
		params.Set("start_date", start)
		params.Set("end_date", end)
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		var page collection[T]
		if err := c.get(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)

		if page.NextToken == nil || *page.NextToken == "" {
			return out, nil
		}
		nextToken = *page.NextToken
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &oauth.StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}

	return nil
}
