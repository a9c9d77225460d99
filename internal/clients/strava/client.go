package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/rs/zerolog"
)

// Default endpoints of the Strava API.
const (
	DefaultAPIBaseURL = "https://www.strava.com/api/v3"
	DefaultTokenURL   = "https://www.strava.com/oauth/token"
)

const perPage = 100

// ClientConfig configures the API client.
type ClientConfig struct {
	BaseURL     string
	Credentials oauth.Credentials
	Timeout     time.Duration
}

// Client for the Strava v3 API.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
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
		log:     log.With().Str("client", "strava").Logger(),
	}, nil
}

// ActivitiesSince returns every activity that started after since.
func (c *Client) ActivitiesSince(ctx context.Context, since time.Time) ([]Activity, error) {
	var all []Activity

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("after", strconv.FormatInt(since.Unix(), 10))
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(perPage))

		var batch []Activity
		if err := c.get(ctx, "athlete/activities", params, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if len(batch) < perPage {
			break
		}
	}

	c.log.Debug().
		Time("since", since).
		Int("activities", len(all)).
		Msg("Fetched Strava activities")

	return all, nil
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
