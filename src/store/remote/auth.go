package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// AuthUser is the identity record returned by the auth endpoints.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is a token grant.
type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         AuthUser `json:"user"`
}

// Expiry resolves the absolute expiry of the grant.
func (s *AuthSession) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0).UTC()
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a user. The returned session is nil when the backend
// requires e-mail confirmation before issuing tokens.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthSession, *AuthUser, error) {
	var resp struct {
		AuthSession
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, nil, err
	}

	if resp.AccessToken == "" {
		return nil, &AuthUser{ID: resp.ID, Email: resp.Email}, nil
	}
	sess := resp.AuthSession
	return &sess, &sess.User, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	var sess AuthSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*AuthSession, error) {
	var sess AuthSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetUser resolves the user behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	var user AuthUser
	err := c.do(ctx, request{method: http.MethodGet, path: authPrefix + "user", token: accessToken}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{method: http.MethodPost, path: authPrefix + "logout", token: accessToken}, nil)
}
