package notifications

import (
	"errors"
	"log"
	"net/http"

	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/respond"
)

// listLimit is how many notifications the inbox shows.
const listLimit = 50

type Handler struct {
	Ledger *Ledger
}

// GET /api/notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.Ledger.List(r.Context(), uid, listLimit)
	if err != nil {
		log.Printf("[ERROR] list notifications user_id=%s: %v", uid, err)
		respond.Error(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	unread, err := h.Ledger.CountUnread(r.Context(), uid)
	if err != nil {
		log.Printf("[ERROR] count unread user_id=%s: %v", uid, err)
		respond.Error(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"total":         len(list),
		"unread":        unread,
	})
}

// POST /api/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Ledger.MarkRead(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, uid, err)
		return
	}
	respond.OK(w)
}

// POST /api/notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	n, err := h.Ledger.MarkAllRead(r.Context(), uid)
	if err != nil {
		writeError(w, uid, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

// DELETE /api/notifications/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Ledger.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, uid, err)
		return
	}
	respond.OK(w)
}

func writeError(w http.ResponseWriter, uid string, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "notification not found")
		return
	}
	log.Printf("[ERROR] notifications user_id=%s: %v", uid, err)
	respond.Error(w, http.StatusInternalServerError, "notification update failed")
}
