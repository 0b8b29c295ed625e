package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/utils"
	"github.com/username/stockfolio/src/views"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// AuthOptions configures redirects and cookie lifetimes.
type AuthOptions struct {
	AuthEntryPath string
	DashboardPath string
	RefreshTTL    time.Duration
	GoogleEnabled bool
}

// AuthHandler owns sign-up, sign-in, refresh and sign-out for both the JSON
// API and the HTML pages.
type AuthHandler struct {
	identity services.IdentityProvider
	notifier *services.Notifier
	views    *views.Renderer
	csrf     *CSRF
	opts     AuthOptions
}

func NewAuthHandler(identity services.IdentityProvider, notifier *services.Notifier, renderer *views.Renderer, csrf *CSRF, opts AuthOptions) *AuthHandler {
	if opts.AuthEntryPath == "" {
		opts.AuthEntryPath = "/auth"
	}
	if opts.DashboardPath == "" {
		opts.DashboardPath = "/dashboard"
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{identity: identity, notifier: notifier, views: renderer, csrf: csrf, opts: opts}
}

type sessionResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func toSessionResponse(sess *services.Session) sessionResponse {
	var resp sessionResponse
	resp.User.ID = sess.UserID
	resp.User.Email = sess.Email
	resp.AccessToken = sess.AccessToken
	resp.RefreshToken = sess.RefreshToken
	resp.ExpiresAt = sess.ExpiresAt
	return resp
}

// requestValues reads a JSON object or a form body into url.Values.
func requestValues(r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return utils.DecodeJSONValues(r.Body)
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

func sendValidationError(w http.ResponseWriter, err error) {
	fields := services.FieldErrorsOf(err)
	if fields == nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	utils.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "Invalid input",
		"fields": fields,
	})
}

// --- JSON API ---

func (h *AuthHandler) SignUpAPI(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	creds, err := services.ParseCredentialsForm(values)
	if err != nil {
		sendValidationError(w, err)
		return
	}

	sess, err := h.identity.SignUp(r.Context(), creds.Email, creds.Password, clientMeta(r))
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		utils.SendJSONError(w, "Email address already in use", http.StatusConflict)
	case errors.Is(err, services.ErrConfirmationRequired):
		utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "Check your email to confirm your account"})
	case err != nil:
		logger.FromContext(r.Context()).Error("Sign-up failed", "error", err)
		utils.SendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

func (h *AuthHandler) SignInAPI(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	creds, err := services.ParseCredentialsForm(values)
	if err != nil {
		sendValidationError(w, err)
		return
	}

	sess, err := h.identity.SignIn(r.Context(), creds.Email, creds.Password, clientMeta(r))
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
	case err != nil:
		logger.FromContext(r.Context()).Error("Sign-in failed", "error", err)
		utils.SendJSONError(w, "Failed to sign in", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func (h *AuthHandler) RefreshAPI(w http.ResponseWriter, r *http.Request) {
	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	refreshToken := strings.TrimSpace(values.Get("refresh_token"))
	if err := validation.ValidateStringNotEmpty(refreshToken, "Refresh token"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.identity.Refresh(r.Context(), refreshToken, clientMeta(r))
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		utils.SendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
	case err != nil:
		logger.FromContext(r.Context()).Error("Token refresh failed", "error", err)
		utils.SendJSONError(w, "Failed to refresh session", http.StatusInternalServerError)
	default:
		utils.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func (h *AuthHandler) SignOutAPI(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	if err := h.identity.SignOut(r.Context(), sess.AccessToken); err != nil {
		logger.FromContext(r.Context()).Error("Sign-out failed", "error", err)
		utils.SendJSONError(w, "Failed to sign out", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// MeAPI returns the user behind the current session.
func (h *AuthHandler) MeAPI(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	utils.WriteJSON(w, http.StatusOK, map[string]any{"user": toSessionResponse(sess).User})
}

// --- HTML pages ---

func (h *AuthHandler) authPage(w http.ResponseWriter, r *http.Request, signUp bool) views.AuthPage {
	title := "Sign in"
	if signUp {
		title = "Sign up"
	}
	return views.AuthPage{
		Base: views.Base{
			Title:         title,
			CSRFToken:     h.csrf.Token(w, r),
			Notices:       h.notifier.Pop(noticeKey(w, r)),
			AuthPath:      h.opts.AuthEntryPath,
			DashboardPath: h.opts.DashboardPath,
		},
		SignUp:        signUp,
		GoogleEnabled: h.opts.GoogleEnabled,
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.views.Render(w, status, page, data); err != nil {
		logger.FromContext(r.Context()).Error("Failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Landing sends signed-in visitors to the dashboard.
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if _, ok := SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, h.opts.DashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.PageLanding, views.LandingPage{
		Base: views.Base{
			Title:         "Welcome",
			Notices:       h.notifier.Pop(noticeKey(w, r)),
			AuthPath:      h.opts.AuthEntryPath,
			DashboardPath: h.opts.DashboardPath,
		},
	})
}

func (h *AuthHandler) AuthPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, h.opts.DashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.PageAuth, h.authPage(w, r, r.URL.Query().Get("mode") == "signup"))
}

func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	h.credentialsPage(w, r, false)
}

func (h *AuthHandler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.credentialsPage(w, r, true)
}

func (h *AuthHandler) credentialsPage(w http.ResponseWriter, r *http.Request, signUp bool) {
	page := h.authPage(w, r, signUp)
	if err := r.ParseForm(); err != nil {
		page.Error = "Invalid form submission"
		h.render(w, r, http.StatusBadRequest, views.PageAuth, page)
		return
	}
	page.FormEmail = r.PostForm.Get("email")

	creds, err := services.ParseCredentialsForm(r.PostForm)
	if err != nil {
		page.Fields = services.FieldErrorsOf(err)
		h.render(w, r, http.StatusBadRequest, views.PageAuth, page)
		return
	}

	var sess *services.Session
	if signUp {
		sess, err = h.identity.SignUp(r.Context(), creds.Email, creds.Password, clientMeta(r))
	} else {
		sess, err = h.identity.SignIn(r.Context(), creds.Email, creds.Password, clientMeta(r))
	}

	switch {
	case err == nil:
		h.setSessionCookies(w, r, sess)
		http.Redirect(w, r, h.opts.DashboardPath, http.StatusSeeOther)
	case errors.Is(err, services.ErrConfirmationRequired):
		page.SignUp = false
		page.Notices = append(page.Notices, services.Notice{
			Level: services.NoticeSuccess, Title: "Check your email", Message: "Confirm your address, then sign in.",
		})
		h.render(w, r, http.StatusOK, views.PageAuth, page)
	case errors.Is(err, services.ErrInvalidCredentials):
		page.Error = "Invalid email or password"
		h.render(w, r, http.StatusUnauthorized, views.PageAuth, page)
	case errors.Is(err, services.ErrEmailTaken):
		page.Error = "Email address already in use"
		h.render(w, r, http.StatusConflict, views.PageAuth, page)
	default:
		logger.FromContext(r.Context()).Error("Credential sign-in failed", "signUp", signUp, "error", err)
		page.Error = "Something went wrong. Please try again."
		h.render(w, r, http.StatusInternalServerError, views.PageAuth, page)
	}
}

func (h *AuthHandler) SignOutPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := SessionFromContext(r.Context()); ok {
		if err := h.identity.SignOut(r.Context(), sess.AccessToken); err != nil {
			logger.FromContext(r.Context()).Error("Sign-out failed", "error", err)
			h.notifier.Error(noticeKey(w, r), "Error", "Failed to sign out")
			http.Redirect(w, r, h.opts.DashboardPath, http.StatusSeeOther)
			return
		}
	}
	h.clearSessionCookies(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- cookies ---

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	accessMaxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if accessMaxAge <= 0 {
		accessMaxAge = int(time.Hour.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name: accessTokenCookie, Value: sess.AccessToken, Path: "/",
		HttpOnly: true, Secure: r.TLS != nil, SameSite: http.SameSiteLaxMode, MaxAge: accessMaxAge,
	})
	if sess.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name: refreshTokenCookie, Value: sess.RefreshToken, Path: "/",
			HttpOnly: true, Secure: r.TLS != nil, SameSite: http.SameSiteLaxMode, MaxAge: int(h.opts.RefreshTTL.Seconds()),
		})
	}
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name: name, Value: "", Path: "/",
			HttpOnly: true, Secure: r.TLS != nil, SameSite: http.SameSiteLaxMode, MaxAge: -1,
		})
	}
}
