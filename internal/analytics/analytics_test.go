package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-backend/internal/testutil"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Platform", "WEB")
	r.Header.Set("X-App-Version", " 1.2.0 ")
	r.Header.Set("X-Device-Locale", "pt-BR")
	r.Header.Set("X-Session-Id", "s1")

	env := FromRequest(r)
	assert.Equal(t, "web", env.Platform)
	assert.Equal(t, "1.2.0", env.AppVersion)
	assert.Equal(t, "pt-BR", env.DeviceLocale)
	assert.Equal(t, "s1", env.SessionID)

	r.Header.Set("X-Platform", "toaster")
	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestLogIgnoresDuplicateKeys(t *testing.T) {
	dbx := testutil.NewTestDB(t)
	l := NewLogger(dbx)
	l.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	ctx := WithUserID(context.Background(), "u1")

	l.Log(ctx, Envelope{}, "task_created", map[string]any{"task_id": "t1"}, "k1")
	l.Log(ctx, Envelope{}, "task_created", map[string]any{"task_id": "t1"}, "k1")
	l.Log(ctx, Envelope{}, "task_started", map[string]any{"task_id": "t1"}, "k1")
	l.Log(ctx, Envelope{}, "task_started", nil, "")

	var n int
	require.NoError(t, dbx.Get(&n, `SELECT COUNT(*) FROM analytics_events WHERE user_id = 'u1'`))
	assert.Equal(t, 3, n)
}

func TestLogWithoutUserIsSkipped(t *testing.T) {
	dbx := testutil.NewTestDB(t)
	NewLogger(dbx).Log(context.Background(), Envelope{}, "app_opened", nil, "")

	var n int
	require.NoError(t, dbx.Get(&n, `SELECT COUNT(*) FROM analytics_events`))
	assert.Equal(t, 0, n)

	var nilLogger *Logger
	nilLogger.Log(context.Background(), Envelope{UserID: "u"}, "x", nil, "")
}

func TestAppOpenedHandler(t *testing.T) {
	dbx := testutil.NewTestDB(t)
	h := AppOpenedHandler(NewLogger(dbx))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/events/app-opened", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/events/app-opened", strings.NewReader(`{"cold_start":true,"from":"icon"}`))
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var props string
	require.NoError(t, dbx.Get(&props, `SELECT properties FROM analytics_events WHERE event_name = 'app_opened'`))
	assert.JSONEq(t, `{"cold_start":true,"from":"icon"}`, props)
}
