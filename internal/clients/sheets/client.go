package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public spreadsheet host.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// ErrNotConfigured is returned when no sheet id is set.
var ErrNotConfigured = errors.New("google sheet id not configured")

// StatusError is a non-2xx response from the export endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusNotFound {
		return "sheet not found or not published to the web"
	}
	return fmt.Sprintf("sheet export returned status %d", e.StatusCode)
}

// Client downloads a published sheet as CSV.
type Client struct {
	baseURL string
	sheetID string
	goals   Goals
	client  *http.Client
	log     zerolog.Logger
	now     func() time.Time
}

// NewClient creates a sheet client.
func NewClient(baseURL, sheetID string, goals Goals, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		sheetID: sheetID,
		goals:   goals,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "sheets").Logger(),
		now:     time.Now,
	}
}

// Configured reports whether a sheet id is set.
func (c *Client) Configured() bool {
	return c.sheetID != ""
}

// FetchLeanMass downloads and parses the lean mass sheet.
func (c *Client) FetchLeanMass(ctx context.Context) (*LeanMass, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := fmt.Sprintf("%s/%s/export?format=csv", c.baseURL, url.PathEscape(c.sheetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := ParseLeanMass(resp.Body, c.goals, c.now())
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Float64("weight", data.Current.Weight).
		Float64("bf_pct", data.Current.BodyFat).
		Float64("lean_mass", data.Current.LeanMass).
		Msg("Fetched lean mass data")

	return data, nil
}
