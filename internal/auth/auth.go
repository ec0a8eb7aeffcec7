package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/mail"
	"taskflow-backend/internal/respond"
)

const minPasswordLen = 6

// dummyHash is compared against when the email is unknown so a failed login
// costs the same bcrypt work either way.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("taskflow-no-such-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

var comparePassword = bcrypt.CompareHashAndPassword

// Notifier records account notifications. level is info, success, warning
// or error.
type Notifier interface {
	NotifySystem(ctx context.Context, userID, level, title, message string) error
}

// Enqueuer accepts outbound email without blocking.
type Enqueuer interface {
	Enqueue(job mail.Job) bool
}

type AuthHandler struct {
	Users        *UserStore
	Sessions     Middleware
	Secret       []byte
	Notifier     Notifier
	Outbox       Enqueuer
	Events       *analytics.Logger
	AppURL       string
	CookieSecure bool
	Now          func() time.Time
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !govalidator.IsEmail(email) {
		respond.Error(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLen {
		respond.Error(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[ERROR] hash password: %v", err)
		respond.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	u, err := h.Users.Create(r.Context(), email, string(hash), strings.TrimSpace(req.Name), token, h.now())
	if errors.Is(err, ErrEmailTaken) {
		respond.Error(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		log.Printf("[ERROR] register %s: %v", email, err)
		respond.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if h.Outbox != nil {
		ok := h.Outbox.Enqueue(mail.Job{
			UserID:   u.ID,
			To:       u.Email,
			Subject:  "Verify your email",
			Heading:  "Welcome to TaskFlow!",
			Body:     "Confirm your email address to start tracking your tasks.",
			LinkPath: "/api/auth/verify-email?token=" + url.QueryEscape(token),
			LinkText: "Verify email",
		})
		if !ok {
			log.Printf("[WARN] email outbox full, verification email dropped user_id=%s", u.ID)
		}
	}

	h.Events.Log(analytics.WithUserID(r.Context(), u.ID), analytics.FromRequest(r), "user_registered", nil, "")

	respond.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Check your inbox to verify your email.",
		"user":    u,
	})
}

// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := strings.TrimSpace(r.URL.Query().Get("token"))

	u, err := h.Users.ByEmailToken(ctx, token)
	if errors.Is(err, ErrUserNotFound) {
		http.Redirect(w, r, h.AppURL+"/auth/login?error="+url.QueryEscape("invalid or expired token"), http.StatusFound)
		return
	}
	if err != nil {
		log.Printf("[ERROR] verify email: %v", err)
		respond.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}

	if err := h.Users.MarkVerified(ctx, u.ID, h.now()); err != nil {
		log.Printf("[ERROR] verify email user_id=%s: %v", u.ID, err)
		respond.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}
	u.EmailVerified = true

	h.notify(ctx, u.ID, "success", "Email verified", "Your email was verified successfully!")

	if err := h.setSession(w, u); err != nil {
		log.Printf("[ERROR] session for user_id=%s: %v", u.ID, err)
		respond.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}
	http.Redirect(w, r, h.AppURL+"/dashboard", http.StatusFound)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.Users.ByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Printf("[ERROR] login lookup: %v", err)
		respond.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	hash := dummyHash()
	if err == nil {
		hash = []byte(u.Password)
	}
	if cmpErr := comparePassword(hash, []byte(req.Password)); err != nil || cmpErr != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.EmailVerified {
		respond.Error(w, http.StatusForbidden, "email not verified")
		return
	}

	token, err := GenerateToken(h.Secret, u, time.Now())
	if err != nil {
		log.Printf("[ERROR] sign token user_id=%s: %v", u.ID, err)
		respond.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.writeCookie(w, token, int(sessionTTL/time.Second))

	h.Events.Log(analytics.WithUserID(r.Context(), u.ID), analytics.FromRequest(r), "user_logged_in", nil, "")

	respond.JSON(w, http.StatusOK, AuthResponse{Token: token, User: u})
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Users.ByID(r.Context(), uid)
	if errors.Is(err, ErrUserNotFound) {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] me user_id=%s: %v", uid, err)
		respond.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	respond.JSON(w, http.StatusOK, u)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, u User) error {
	token, err := GenerateToken(h.Secret, u, time.Now())
	if err != nil {
		return err
	}
	h.writeCookie(w, token, int(sessionTTL/time.Second))
	return nil
}

func (h *AuthHandler) writeCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) notify(ctx context.Context, userID, level, title, message string) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.NotifySystem(ctx, userID, level, title, message); err != nil {
		log.Printf("[WARN] notify user_id=%s: %v", userID, err)
	}
}
