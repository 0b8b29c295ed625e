package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/utils"
)

const (
	csrfCookieName = "_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
)

// CSRF implements double-submit tokens. With a key, each token is a nonce
// followed by its HMAC and only signed cookies are accepted.
type CSRF struct {
	key []byte
}

func NewCSRF(key []byte) *CSRF {
	return &CSRF{key: key}
}

func (c *CSRF) sign(nonce string) string {
	if len(c.key) == 0 {
		return nonce
	}
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(nonce))
	return nonce + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c *CSRF) valid(token string) bool {
	if token == "" {
		return false
	}
	if len(c.key) == 0 {
		return true
	}
	nonce, _, found := strings.Cut(token, ".")
	return found && hmac.Equal([]byte(c.sign(nonce)), []byte(token))
}

// Token returns the request's CSRF token, issuing a cookie when there is none.
func (c *CSRF) Token(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && c.valid(cookie.Value) {
		return cookie.Value
	}
	token := c.sign(generateRandomToken())
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   3600,
	})
	return token
}

// GetCSRFToken hands the token to API clients in the body and a header.
func (c *CSRF) GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Debug("Generating CSRF token", "remoteAddr", r.RemoteAddr)
	token := c.Token(w, r)
	w.Header().Set(csrfHeaderName, token)
	utils.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func generateRandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Error generating random bytes for CSRF token", "error", err)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Middleware checks state-changing requests. The token comes from the
// X-CSRF-Token header or, for HTML forms, the csrf_token field.
func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(csrfHeaderName)
		if submitted == "" && isFormRequest(r) {
			submitted = r.PostFormValue(csrfFormField)
		}
		cookie, errCookie := r.Cookie(csrfCookieName)

		if submitted != "" && errCookie == nil &&
			subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) == 1 &&
			c.valid(cookie.Value) {
			next.ServeHTTP(w, r)
			return
		}

		var cookieErrorForLog any
		if errCookie != nil {
			cookieErrorForLog = errCookie.Error()
		}
		ctxLogger.Warn("CSRF Validation Failed",
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.Bool("tokenSubmitted", submitted != ""),
			slog.Any("cookieError", cookieErrorForLog),
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("referer", r.Header.Get("Referer")),
		)
		http.Error(w, "CSRF token validation failed", http.StatusForbidden)
	})
}

func isFormRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
