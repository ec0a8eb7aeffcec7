package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-backend/internal/timer"
)

func TestLoginThenTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"token":"tok-1"}`))
		case "/api/tasks":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "cli", r.Header.Get("X-Platform"))
			_, _ = w.Write([]byte(`[{"id":"t1","title":"Report","status":"IN_PROGRESS",
				"timer":{"remaining_seconds":60,"remaining":"00:01:00","phase":"final","two_minute_warning":true}}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "")
	ctx := context.Background()

	_, err := c.Tasks(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Login(ctx, "a@b.io", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	tok, err := c.Login(ctx, "a@b.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	list, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Timer)
	assert.Equal(t, timer.PhaseFinal, list[0].Timer.Phase)
	assert.True(t, list[0].Timer.TwoMinuteWarning)
}

func TestErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"task not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").TaskTime(context.Background(), "x", "start", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found")
}

func TestCheckTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tasks/check-time", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"result":{"almost_expired":1,"half_time":2}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, "t").CheckTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.AlmostExpired)
	assert.Equal(t, 2, res.HalfTime)
}
