package oura

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenOK = `{"access_token":"access-1","token_type":"bearer","expires_in":86400,"refresh_token":"refresh-2"}`

func newTokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, apiURL, tokenURL string) *Client {
	t.Helper()

	client, err := NewClient(ClientConfig{
		BaseURL: apiURL,
		Credentials: oauth.Credentials{
			ClientID:     "id",
			ClientSecret: "secret",
			RefreshToken: "refresh-1",
			TokenURL:     tokenURL,
		},
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	client.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }
	return client
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := NewClient(ClientConfig{}, zerolog.Nop())
	assert.ErrorIs(t, err, oauth.ErrNotConfigured)
}

func TestFetchRecent(t *testing.T) {
	tokens := newTokenServer(t, http.StatusOK, tokenOK)

	var sleepPages int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-02-25", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-03-10", r.URL.Query().Get("end_date"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/usercollection/sleep":
			sleepPages++
			if r.URL.Query().Get("next_token") == "" {
				_, _ = w.Write([]byte(`{"data":[{"day":"2024-03-09","type":"long_sleep","total_sleep_duration":27000,"time_in_bed":29000,"deep_sleep_duration":5000,"rem_sleep_duration":6000,"lowest_heart_rate":52}],"next_token":"page2"}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"day":"2024-03-10","type":"long_sleep","total_sleep_duration":25920,"time_in_bed":28800,"deep_sleep_duration":4680,"rem_sleep_duration":5760,"lowest_heart_rate":53}],"next_token":null}`))
		case "/usercollection/daily_sleep":
			_, _ = w.Write([]byte(`{"data":[{"day":"2024-03-10","score":82}]}`))
		case "/usercollection/daily_readiness":
			_, _ = w.Write([]byte(`{"data":[{"day":"2024-03-10","score":78,"contributors":{"hrv_balance":68}}]}`))
		case "/usercollection/daily_activity":
			_, _ = w.Write([]byte(`{"data":[{"day":"2024-03-10","steps":9000}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, tokens.URL)

	data, err := client.FetchRecent(context.Background(), 14)
	require.NoError(t, err)

	assert.Equal(t, 2, sleepPages)
	assert.Len(t, data.Sleep, 2)
	assert.Equal(t, SourceAPI, data.Source)

	latest, ok := data.LatestSleep()
	require.True(t, ok)
	assert.Equal(t, "2024-03-10", latest.Day)
	assert.Equal(t, 53.0, latest.LowestHeartRate)

	readiness, ok := data.LatestReadiness()
	require.True(t, ok)
	assert.Equal(t, 68.0, readiness.HRV())

	score, ok := data.DailySleepScore("2024-03-10")
	assert.True(t, ok)
	assert.Equal(t, 82, score)
}

func TestFetchRecent_DataEndpointForbidden(t *testing.T) {
	tokens := newTokenServer(t, http.StatusOK, tokenOK)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscription required", http.StatusForbidden)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, tokens.URL)

	_, err := client.FetchRecent(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, oauth.IsAuthFailure(err))
	assert.True(t, strings.Contains(err.Error(), "403"))
}

func TestFetchRecent_TokenForbidden(t *testing.T) {
	tokens := newTokenServer(t, http.StatusForbidden, `{"error":"access_denied"}`)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("data endpoint must not be called without a token")
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, tokens.URL)

	_, err := client.FetchRecent(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, oauth.IsAuthFailure(err))
}

func TestFetchRecent_ServerError(t *testing.T) {
	tokens := newTokenServer(t, http.StatusOK, tokenOK)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, tokens.URL)

	_, err := client.FetchRecent(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, oauth.IsAuthFailure(err))
}

func TestLatestSleep_PrefersLongSleep(t *testing.T) {
	data := &Data{Sleep: []SleepRecord{
		{Day: "2024-03-10", Type: "sleep", TotalSleepDuration: 30000},
		{Day: "2024-03-10", Type: "long_sleep", TotalSleepDuration: 20000},
		{Day: "2024-03-09", Type: "long_sleep", TotalSleepDuration: 28000},
	}}

	latest, ok := data.LatestSleep()
	require.True(t, ok)
	assert.Equal(t, "long_sleep", latest.Type)
	assert.Equal(t, 20000.0, latest.TotalSleepDuration)

	var empty *Data
	_, ok = empty.LatestSleep()
	assert.False(t, ok)
	assert.True(t, empty.Empty())
}

func TestMainSleeps_OnePerDay(t *testing.T) {
	data := &Data{Sleep: []SleepRecord{
		{Day: "2024-03-10", Type: "late_nap", TotalSleepDuration: 1200},
		{Day: "2024-03-09", Type: "rest", TotalSleepDuration: 900},
		{Day: "2024-03-09", Type: "sleep", TotalSleepDuration: 4000},
		{Day: "2024-03-10", Type: "long_sleep", TotalSleepDuration: 28800},
	}}

	main := data.MainSleeps()
	require.Len(t, main, 2)
	assert.Equal(t, "2024-03-09", main[0].Day)
	assert.Equal(t, 4000.0, main[0].TotalSleepDuration)
	assert.Equal(t, "2024-03-10", main[1].Day)
	assert.Equal(t, "long_sleep", main[1].Type)

	assert.Nil(t, (*Data)(nil).MainSleeps())
}

func TestReadinessHRVFallbacks(t *testing.T) {
	assert.Equal(t, 70.0, ReadinessRecord{HeartRateVariability: 70, HRVBalance: 80}.HRV())
	assert.Equal(t, 80.0, ReadinessRecord{HRVBalance: 80}.HRV())
	assert.Equal(t, 65.0, ReadinessRecord{Contributors: ReadinessContributors{HRVBalance: 65}}.HRV())
	assert.Equal(t, 0.0, ReadinessRecord{}.HRV())
}
