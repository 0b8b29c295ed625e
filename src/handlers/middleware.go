package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/utils"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	sessionContextKey   contextKey = "session"
)

// ContextualLoggerMiddleware creates a logger with a requestID for each request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session resolved by SessionMiddleware.
func SessionFromContext(ctx context.Context) (*services.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*services.Session)
	return sess, ok && sess != nil
}

func withSession(ctx context.Context, sess *services.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), false
	}
	if c, err := r.Cookie(accessTokenCookie); err == nil {
		return c.Value, true
	}
	return "", true
}

func clientMeta(r *http.Request) services.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return services.ClientMeta{UserAgent: r.UserAgent(), ClientIP: ip}
}

// SessionMiddleware resolves the caller's session, if any, and stores it in
// the request context. Browser sessions whose access token expired are
// renewed from the refresh cookie. It never rejects a request.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctxLogger := logger.FromContext(ctx)

		token, fromCookie := tokenFromRequest(r)
		var sess *services.Session
		var err error = services.ErrNotAuthenticated
		if token != "" {
			sess, err = h.identity.CurrentUser(ctx, token)
		}

		if errors.Is(err, services.ErrNotAuthenticated) && fromCookie {
			if rc, cookieErr := r.Cookie(refreshTokenCookie); cookieErr == nil && rc.Value != "" {
				sess, err = h.identity.Refresh(ctx, rc.Value, clientMeta(r))
				if err == nil {
					ctxLogger.Debug("SessionMiddleware: session renewed from refresh cookie")
					h.setSessionCookies(w, r, sess)
				} else {
					h.clearSessionCookies(w, r)
				}
			}
		}

		if err != nil {
			if !errors.Is(err, services.ErrNotAuthenticated) {
				ctxLogger.Error("SessionMiddleware: session lookup failed", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		enrichedLogger := ctxLogger.With(slog.String("userID", sess.UserID))
		ctx = logger.ToContext(ctx, enrichedLogger)
		next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
	})
}

// RequireAPISession rejects requests without a session with 401.
func RequireAPISession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			logger.FromContext(r.Context()).Debug("RequireAPISession: no session", "path", r.URL.Path)
			utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePageSession redirects visitors without a session to the auth entry page.
func (h *AuthHandler) RequirePageSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			http.Redirect(w, r, h.opts.AuthEntryPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
