package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/meeshellyo/Cat-Corner/config"
	"github.com/meeshellyo/Cat-Corner/models"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	CurrentUserKey ContextKey = "currentUser"
	CSRFTokenKey   ContextKey = "csrfToken"
	AppKey         ContextKey = "app"
)

// AppContextMiddleware injects the App dependency into the request context.
func AppContextMiddleware(app App, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), AppKey, app)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFMiddleware protects against Cross-Site Request Forgery attacks.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		csrfCookie, err := r.Cookie("csrf_token")
		var csrfToken string

		if err != nil || csrfCookie.Value == "" {
			csrfToken = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     "csrf_token",
				Value:    csrfToken,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		} else {
			csrfToken = csrfCookie.Value
		}

		if r.Method == "POST" {
			tokenFromForm := r.FormValue("csrf_token")
			if tokenFromForm == "" {
				tokenFromForm = r.Header.Get("X-CSRF-Token")
			}

			if subtle.ConstantTimeCompare([]byte(tokenFromForm), []byte(csrfToken)) != 1 {
				http.Error(w, "Invalid CSRF token", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), CSRFTokenKey, csrfToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the session cookie to its account and places
// the user in the request context. Anonymous requests pass through with no
// user set.
func SessionMiddleware(app App, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(config.SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := app.DB().GetSessionUser(cookie.Value)
		if err != nil {
			// Stale or invalid token; drop the cookie.
			http.SetCookie(w, &http.Cookie{
				Name:    config.SessionCookieName,
				Value:   "",
				Path:    "/",
				Expires: time.Unix(0, 0),
			})
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the authenticated user for the request, or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(CurrentUserKey).(*models.User)
	return user
}

// RequireRole gates a subtree behind a minimum role. Anonymous callers are
// sent to the login page; authenticated callers below the role get a 403.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusSeeOther)
				return
			}
			if !user.Role.AtLeast(role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser, RequireModerator and RequireAdmin are the three gate levels
// used by the router.
var (
	RequireUser      = RequireRole(models.RoleRegistered)
	RequireModerator = RequireRole(models.RoleModerator)
	RequireAdmin     = RequireRole(models.RoleAdmin)
)

// NewStructuredLogger returns chi middleware that logs each request through
// slog once the response is written.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// NewSecurityHeadersMiddleware sets baseline security headers. mediaOrigin,
// when non-empty, is added to the image and media CSP sources for external
// object storage.
func NewSecurityHeadersMiddleware(mediaOrigin string) func(http.Handler) http.Handler {
	csp := "default-src 'self'; img-src 'self' data:; media-src 'self'; style-src 'self' 'unsafe-inline'"
	if mediaOrigin != "" {
		csp = "default-src 'self'; img-src 'self' data: " + mediaOrigin +
			"; media-src 'self' " + mediaOrigin + "; style-src 'self' 'unsafe-inline'"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "same-origin")
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}
