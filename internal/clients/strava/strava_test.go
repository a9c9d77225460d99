package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		activity Activity
		want     Category
	}{
		{Activity{SportType: "Run"}, CategoryRun},
		{Activity{SportType: "TrailRun"}, CategoryRun},
		{Activity{Type: "VirtualRun"}, CategoryRun},
		{Activity{SportType: "WeightTraining"}, CategoryLift},
		{Activity{Type: "Workout", Name: "Gym session"}, CategoryLift},
		{Activity{Type: "Workout", Name: "Leg day strength"}, CategoryLift},
		{Activity{SportType: "Ride", Name: "Morning ride"}, CategoryOther},
		// names never make a run
		{Activity{SportType: "Walk", Name: "run errands"}, CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.activity), "%+v", tt.activity)
	}
}

func TestWeekStart(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Wednesday 2024-03-13 10:00 local
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), WeekStart(now, loc))

	// Sunday is its own week start
	sunday := time.Date(2024, 3, 10, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), WeekStart(sunday, loc))

	// 02:00 UTC Sunday is still Saturday evening in New York
	utc := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, loc), WeekStart(utc, loc))
}

func TestBuildWeeklyProgress(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, loc)
	targets := Targets{RunTarget: 3, LiftTarget: 2, LiftBonusTarget: 3, RunMinutesTarget: 60}

	activities := []Activity{
		{SportType: "Run", StartDate: time.Date(2024, 3, 9, 8, 0, 0, 0, loc), MovingTime: 3600}, // last week
		{SportType: "Run", StartDate: time.Date(2024, 3, 10, 8, 0, 0, 0, loc), MovingTime: 1500},
		{SportType: "Run", StartDate: time.Date(2024, 3, 12, 8, 0, 0, 0, loc), MovingTime: 1230},
		{SportType: "WeightTraining", StartDate: time.Date(2024, 3, 11, 18, 0, 0, 0, loc)},
		{SportType: "Ride", StartDate: time.Date(2024, 3, 11, 7, 0, 0, 0, loc), MovingTime: 5400},
	}

	progress := BuildWeeklyProgress(activities, targets, now, loc)

	assert.Equal(t, 2, progress.Runs)
	assert.Equal(t, 1, progress.Lifts)
	assert.Equal(t, 46, progress.RunMinutes) // 45.5 rounds up
	assert.Equal(t, "2024-03-10", progress.WeekStart)
	assert.Len(t, progress.Activities, 5)
	assert.Equal(t, 1, progress.RunsNeeded())
	assert.Equal(t, 1, progress.LiftsNeeded())
	assert.Equal(t, 14, progress.RunMinutesNeeded())

	empty := BuildWeeklyProgress(nil, targets, now, loc)
	assert.NotNil(t, empty.Activities)
	assert.Equal(t, 3, empty.RunsNeeded())
}

func TestCountSince(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	activities := []Activity{
		{StartDate: now.Add(-1 * time.Hour)},
		{StartDate: now.Add(-50 * time.Hour)},
		{StartDate: now.Add(-80 * time.Hour)},
	}

	assert.Equal(t, 2, CountSince(activities, now.AddDate(0, 0, -3)))
}

func TestActivitiesSince_Paginates(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"strava-access","token_type":"Bearer","expires_in":21600}`))
	}))
	defer tokens.Close()

	since := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	var pages []int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "Bearer strava-access", r.Header.Get("Authorization"))
		assert.Equal(t, strconv.FormatInt(since.Unix(), 10), r.URL.Query().Get("after"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages = append(pages, page)

		count := perPage
		if page == 2 {
			count = 3
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("["))
		for i := 0; i < count; i++ {
			if i > 0 {
				_, _ = w.Write([]byte(","))
			}
			fmt.Fprintf(w, `{"id":%d,"sport_type":"Run","start_date":"2024-03-11T07:00:00Z","moving_time":1800}`, page*1000+i)
		}
		_, _ = w.Write([]byte("]"))
	}))
	defer api.Close()

	client, err := NewClient(ClientConfig{
		BaseURL: api.URL,
		Credentials: oauth.Credentials{
			ClientID:     "id",
			ClientSecret: "secret",
			RefreshToken: "refresh",
			TokenURL:     tokens.URL,
		},
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	activities, err := client.ActivitiesSince(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, pages)
	assert.Len(t, activities, perPage+3)
	assert.Equal(t, 1800, activities[0].MovingTime)
}

func TestActivitiesSince_Unauthorized(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokens.Close()

	client, err := NewClient(ClientConfig{
		BaseURL: "http://127.0.0.1:1",
		Credentials: oauth.Credentials{
			ClientID: "id", ClientSecret: "secret", RefreshToken: "revoked", TokenURL: tokens.URL,
		},
	}, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.ActivitiesSince(context.Background(), time.Now())
	require.Error(t, err)
	assert.True(t, oauth.IsAuthFailure(err))
}
