package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/model"
	"github.com/username/stockfolio/src/services"
)

const (
	oauthStateCookie   = "oauth_state"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleSignInFailed = "Google sign-in failed. Please try again."
)

func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
		Endpoint:     google.Endpoint,
	}
}

// OAuthHandler signs users in with Google and opens a local session.
type OAuthHandler struct {
	config      *oauth2.Config
	accounts    services.ExternalSignIn
	auth        *AuthHandler
	statePrefix string
	userInfoURL string
}

func NewOAuthHandler(config *oauth2.Config, accounts services.ExternalSignIn, auth *AuthHandler, statePrefix string) *OAuthHandler {
	return &OAuthHandler{
		config:      config,
		accounts:    accounts,
		auth:        auth,
		statePrefix: statePrefix,
		userInfoURL: googleUserInfoURL,
	}
}

func (h *OAuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	nonce := generateRandomToken()
	http.SetCookie(w, &http.Cookie{
		Name: oauthStateCookie, Value: nonce, Path: "/",
		HttpOnly: true, Secure: r.TLS != nil, SameSite: http.SameSiteLaxMode, MaxAge: 600,
	})
	http.Redirect(w, r, h.config.AuthCodeURL(h.statePrefix+"."+nonce), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctxLogger := logger.FromContext(ctx)

	nonce, err := r.Cookie(oauthStateCookie)
	if err != nil || r.FormValue("state") != h.statePrefix+"."+nonce.Value {
		ctxLogger.Warn("Invalid OAuth state from Google callback")
		h.fail(w, r, googleSignInFailed)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	token, err := h.config.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		ctxLogger.Error("Failed to exchange code for token", "error", err)
		h.fail(w, r, googleSignInFailed)
		return
	}

	googleUser, err := h.fetchUser(r, token)
	if err != nil {
		ctxLogger.Error("Failed to get user info from Google", "error", err)
		h.fail(w, r, googleSignInFailed)
		return
	}
	email := strings.ToLower(strings.TrimSpace(googleUser.Email))
	if !googleUser.Verified || email == "" {
		h.fail(w, r, "Your Google e-mail address is not verified.")
		return
	}

	sess, err := h.accounts.SignInExternal(ctx, model.ProviderGoogle, email, clientMeta(r))
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			h.fail(w, r, "This e-mail is registered with a password. Sign in with your password instead.")
			return
		}
		ctxLogger.Error("Failed to open session for Google user", "error", err)
		h.fail(w, r, googleSignInFailed)
		return
	}

	h.auth.setSessionCookies(w, r, sess)
	http.Redirect(w, r, h.auth.opts.DashboardPath, http.StatusSeeOther)
}

type googleUserInfo struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified_email"`
	ID       string `json:"id"`
}

func (h *OAuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.config.Client(r.Context(), token)
	response, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", response.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, message string) {
	h.auth.notifier.Error(noticeKey(w, r), "Error", message)
	http.Redirect(w, r, h.auth.opts.AuthEntryPath, http.StatusSeeOther)
}
