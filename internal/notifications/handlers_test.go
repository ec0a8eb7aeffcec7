package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-backend/internal/auth"
)

func TestHandlers(t *testing.T) {
	l, c, uid := newLedger(t)
	h := &Handler{Ledger: l}
	ctx := context.Background()

	first, _, err := l.UpsertIfAbsent(ctx, overdue(uid), DedupeWindow)
	require.NoError(t, err)
	c.Advance(time.Second)
	_, _, err = l.UpsertIfAbsent(ctx, Notification{UserID: uid, Type: TypeInfo, Title: "t", Message: "m"}, DedupeWindow)
	require.NoError(t, err)

	call := func(fn http.HandlerFunc, method, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/notifications", nil)
		if id != "" {
			req.SetPathValue("id", id)
		}
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	rec := call(h.List, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Notifications []Notification `json:"notifications"`
		Total         int            `json:"total"`
		Unread        int            `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 2, body.Unread)
	assert.Equal(t, "t", body.Notifications[0].Title)

	assert.Equal(t, http.StatusOK, call(h.MarkRead, http.MethodPost, first.ID).Code)
	assert.Equal(t, http.StatusNotFound, call(h.MarkRead, http.MethodPost, "nope").Code)

	rec = call(h.MarkAllRead, http.MethodPost, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"updated":1}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, call(h.Delete, http.MethodDelete, first.ID).Code)
	assert.Equal(t, http.StatusNotFound, call(h.Delete, http.MethodDelete, first.ID).Code)
}

func TestHandlersRequireAuth(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
