package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-backend/internal/config"
	"taskflow-backend/internal/mail"
	"taskflow-backend/internal/testutil"
)

type memOutbox struct {
	mu   sync.Mutex
	jobs []mail.Job
}

func (o *memOutbox) Enqueue(job mail.Job) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobs = append(o.jobs, job)
	return true
}

type apiClient struct {
	t     *testing.T
	srv   *httptest.Server
	token string
}

func (c *apiClient) call(method, path, body string) (int, map[string]any, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func TestEndToEnd(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cfg := &config.Config{
		JWTSecret:    "e2e-secret",
		AppURL:       "http://app.test",
		CORSOrigins:  []string{"http://app.test"},
		SweepTimeout: 5 * time.Second,
		NotifyEmail:  true,
	}
	outbox := &memOutbox{}
	srv := httptest.NewServer(newHandler(cfg, testutil.NewTestDB(t), outbox, clock))
	defer srv.Close()
	c := &apiClient{t: t, srv: srv}

	code, _, _ := c.call(http.MethodGet, "/api/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body, _ := c.call(http.MethodPost, "/api/tasks/check-time", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["error"])

	code, _, _ = c.call(http.MethodPost, "/api/auth/register", `{"email":"e2e@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, outbox.jobs, 1)

	code, _, _ = c.call(http.MethodGet, outbox.jobs[0].LinkPath, "")
	require.Equal(t, http.StatusFound, code)

	code, body, _ = c.call(http.MethodPost, "/api/auth/login", `{"email":"e2e@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, code)
	c.token = body["token"].(string)

	code, body, _ = c.call(http.MethodPost, "/api/tasks", `{"title":"Write tests","estimated_time":20}`)
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, _, _ = c.call(http.MethodPost, "/api/tasks/"+id+"/time", `{"action":"start"}`)
	require.Equal(t, http.StatusOK, code)

	now = now.Add(10 * time.Minute)
	code, body, _ = c.call(http.MethodPost, "/api/tasks/check-time", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(1), result["half_time"])
	assert.Equal(t, float64(1), result["almost_expired"])

	code, body, _ = c.call(http.MethodPost, "/api/tasks/check-overdue", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["result"].(map[string]any)["half_time"])

	code, body, _ = c.call(http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, code)
	// email verified, created, started, almost expired, half time
	assert.Equal(t, float64(5), body["total"])
	assert.Equal(t, float64(5), body["unread"])

	code, _, _ = c.call(http.MethodPost, "/api/notifications/read-all", "")
	require.Equal(t, http.StatusOK, code)

	code, _, raw := c.call(http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), `"remaining":"00:10:00"`)
	assert.Contains(t, string(raw), `"phase":"half_elapsed"`)

	code, _, _ = c.call(http.MethodGet, "/api/stats?month=2026-10", "")
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = c.call(http.MethodDelete, "/api/tasks/"+id, "")
	require.Equal(t, http.StatusOK, code)

	code, _, _ = c.call(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)

	// verification link, then one per created notification
	assert.Len(t, outbox.jobs, 7)
}
