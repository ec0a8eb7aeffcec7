package auth

import (
	"fmt"
	"log"
	"net/http"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/respond"
)

// POST /api/auth/logout. Sessions are stateless, so logout clears the
// cookie and leaves a note in the user's notifications when the session
// was still valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := h.Sessions.Identify(r); ok {
		at := h.now().UTC().Format("2006-01-02 15:04:05 UTC")
		h.notify(r.Context(), claims.Subject, "info", "Logged out", fmt.Sprintf("You logged out at %s.", at))
		h.Events.Log(analytics.WithUserID(r.Context(), claims.Subject), analytics.FromRequest(r), "user_logged_out", nil, "")
	}

	h.writeCookie(w, "", -1)
	respond.OK(w)
}

// DELETE /api/auth/account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Users.DeleteAccount(r.Context(), uid); err != nil {
		log.Printf("[ERROR] delete account user_id=%s: %v", uid, err)
		respond.Error(w, http.StatusInternalServerError, "delete account failed")
		return
	}

	h.writeCookie(w, "", -1)
	respond.OK(w)
}
