package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/store/remote"
)

// RemoteIdentity delegates the session lifecycle to the hosted auth service.
type RemoteIdentity struct {
	client *remote.Client
	now    func() time.Time
}

func NewRemoteIdentity(client *remote.Client) *RemoteIdentity {
	return &RemoteIdentity{client: client, now: time.Now}
}

func (p *RemoteIdentity) SignUp(ctx context.Context, email, password string, _ ClientMeta) (*Session, error) {
	grant, user, err := p.client.SignUp(ctx, email, password)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnprocessableEntity || apiErr.Code == "user_already_exists") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("remote sign-up: %w", err)
	}
	if grant == nil {
		logger.FromContext(ctx).Info("User registered, awaiting e-mail confirmation", "userID", user.ID)
		return nil, ErrConfirmationRequired
	}
	return p.toSession(grant), nil
}

func (p *RemoteIdentity) SignIn(ctx context.Context, email, password string, _ ClientMeta) (*Session, error) {
	grant, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		if isClientError(err) {
			logger.FromContext(ctx).Warn("Remote sign-in rejected", "error", err)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("remote sign-in: %w", err)
	}
	return p.toSession(grant), nil
}

func (p *RemoteIdentity) CurrentUser(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}
	user, err := p.client.GetUser(ctx, accessToken)
	if err != nil {
		if isClientError(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("remote user lookup: %w", err)
	}
	return &Session{UserID: user.ID, Email: user.Email, AccessToken: accessToken}, nil
}

func (p *RemoteIdentity) Refresh(ctx context.Context, refreshToken string, _ ClientMeta) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNotAuthenticated
	}
	grant, err := p.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		if isClientError(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("remote refresh: %w", err)
	}
	return p.toSession(grant), nil
}

func (p *RemoteIdentity) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	err := p.client.SignOut(ctx, accessToken)
	if err != nil && isClientError(err) {
		// Token already invalid: the user is signed out either way.
		return nil
	}
	return err
}

func (p *RemoteIdentity) toSession(grant *remote.AuthSession) *Session {
	return &Session{
		UserID:       grant.User.ID,
		Email:        grant.User.Email,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.Expiry(p.now()),
	}
}

func isClientError(err error) bool {
	var apiErr *remote.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}
