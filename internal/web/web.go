// ABOUTME: HTTP surface for sqlpeek: login, logout, path binding, and the table view
// ABOUTME: Holds the auth gate middleware and cookie-based session plumbing

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sqlpeek/sqlpeek/internal/session"
	"github.com/sqlpeek/sqlpeek/internal/viewer"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "sqlpeek_session"

// Handler serves the viewer UI. All dependencies are injected at
// construction; there is no package-level state.
type Handler struct {
	sessions *session.Store
	viewer   *viewer.Service
	logger   *slog.Logger
}

// New creates the HTTP handler around an existing session store and
// viewer service.
func New(sessions *session.Store, svc *viewer.Service) *Handler {
	return &Handler{
		sessions: sessions,
		viewer:   svc,
		logger:   slog.Default().With("component", "web"),
	}
}

// Routes returns the full handler with panic recovery and request logging
// applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h.logRequests(h.recoverPanics(mux))
}

// RegisterRoutes registers all viewer routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /logout", h.handleLogout)

	// Protected routes (auth required)
	mux.HandleFunc("GET /{$}", h.requireAuth(h.handleHome))
	mux.HandleFunc("POST /set-db", h.requireAuth(h.handleSetDB))
}

// requireAuth wraps a handler to require an authenticated session.
// Anonymous and expired sessions get redirected to the login page; the
// session itself is not mutated.
func (h *Handler) requireAuth(next func(http.ResponseWriter, *http.Request, *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.sessionFromRequest(r)
		if sess == nil || sess.Username() == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	}
}

// sessionFromRequest resolves the session cookie, returning nil when there
// is no cookie, the token is unknown, or the session has expired.
func (h *Handler) sessionFromRequest(r *http.Request) *session.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}
	return h.sessions.Get(cookie.Value)
}

// handleLoginPage renders the login form with no prefilled error.
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := h.sessionFromRequest(r); sess != nil && sess.Username() != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLoginPage(w, "")
}

// handleLogin processes the login form submission.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginPage(w, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	sess := h.sessionFromRequest(r)
	if sess == nil {
		var err error
		sess, err = h.sessions.Create()
		if err != nil {
			h.logger.Error("failed to create session", "error", err)
			h.renderLoginPage(w, "An error occurred")
			return
		}
	}

	if msg, ok := h.viewer.Login(username, password, sess); !ok {
		h.renderLoginPage(w, msg)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSetDB binds the session to a database path. Success and failure
// both land back on the home view; a failed bind leaves the previous
// binding alone and queues a one-shot error for the next render.
func (h *Handler) handleSetDB(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := r.ParseForm(); err != nil {
		sess.SetError("Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	dbPath := r.FormValue("dbPath")
	if err := h.viewer.BindPath(dbPath, sess); err != nil {
		h.logger.Warn("bind rejected", "path", dbPath, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleHome renders the users table for the bound path, an empty state if
// no path is bound, or an inline error if the last bind or query failed.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	result := h.viewer.ViewHome(r.Context(), sess)
	h.renderHome(w, result)
}

// handleLogout destroys the session entirely and clears the cookie.
// No auth is required to invoke it; logging out twice is harmless.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		h.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// recoverPanics converts any handler panic into a logged generic failure.
// No stack trace or internal detail reaches the response.
func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logRequests logs each request with a generated request ID and duration.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.New().String()
		next.ServeHTTP(w, r)
		h.logger.Debug("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
