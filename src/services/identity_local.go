package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/model"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/store"
)

const (
	defaultPortfolioName        = "Main Portfolio"
	defaultPortfolioDescription = "Default Portfolio"
)

// LocalIdentity keeps accounts and sessions in the embedded database.
type LocalIdentity struct {
	db         *sql.DB
	auth       *security.AuthService
	portfolios store.PortfolioStore
	refreshTTL time.Duration
}

func NewLocalIdentity(db *sql.DB, auth *security.AuthService, portfolios store.PortfolioStore, refreshTTL time.Duration) *LocalIdentity {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &LocalIdentity{db: db, auth: auth, portfolios: portfolios, refreshTTL: refreshTTL}
}

// SignUp creates the account with its default portfolio and opens a session.
func (p *LocalIdentity) SignUp(ctx context.Context, email, password string, meta ClientMeta) (*Session, error) {
	_, err := model.GetUserByEmail(ctx, p.db, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("check email uniqueness: %w", err)
	}

	hashed, err := p.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{Email: email, Password: hashed, AuthProvider: model.ProviderLocal}
	if err := p.createAccount(ctx, user); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User registered", "userID", user.ID)
	return p.openSession(ctx, user, meta)
}

func (p *LocalIdentity) SignIn(ctx context.Context, email, password string, meta ClientMeta) (*Session, error) {
	log := logger.FromContext(ctx)

	user, err := model.GetUserByEmail(ctx, p.db, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			log.Warn("Sign-in failed: user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user.AuthProvider != model.ProviderLocal || user.Password == "" {
		log.Warn("Sign-in failed: account uses external provider", "userID", user.ID, "provider", user.AuthProvider)
		return nil, ErrInvalidCredentials
	}
	if err := p.auth.CheckPassword(user.Password, password); err != nil {
		log.Warn("Sign-in failed: password mismatch", "userID", user.ID)
		return nil, ErrInvalidCredentials
	}
	return p.openSession(ctx, user, meta)
}

// SignInExternal finds or creates an account for an e-mail verified by
// provider. An address already registered with another provider is refused
// with ErrEmailTaken.
func (p *LocalIdentity) SignInExternal(ctx context.Context, provider, email string, meta ClientMeta) (*Session, error) {
	user, err := model.GetUserByEmail(ctx, p.db, email)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		user = &model.User{Email: email, AuthProvider: provider}
		if err := p.createAccount(ctx, user); err != nil {
			return nil, err
		}
		logger.FromContext(ctx).Info("User registered via external provider", "userID", user.ID, "provider", provider)
	case err != nil:
		return nil, fmt.Errorf("look up user: %w", err)
	case user.AuthProvider != provider:
		logger.FromContext(ctx).Warn("External sign-in for account with another provider", "userID", user.ID, "provider", user.AuthProvider)
		return nil, ErrEmailTaken
	}
	return p.openSession(ctx, user, meta)
}

func (p *LocalIdentity) CurrentUser(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}
	userID, err := p.auth.ValidateToken(accessToken)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	row, err := model.GetSessionByToken(ctx, p.db, accessToken)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if row.UserID != userID {
		return nil, ErrNotAuthenticated
	}

	user, err := model.GetUserByID(ctx, p.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	return &Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  row.Token,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
	}, nil
}

// Refresh redeems a refresh token once and issues a new token pair.
func (p *LocalIdentity) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNotAuthenticated
	}
	old, err := model.GetSessionByRefreshToken(ctx, p.db, refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("look up refresh session: %w", err)
	}
	if err := model.DeleteSessionByRefreshToken(ctx, p.db, refreshToken); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("revoke refresh session: %w", err)
	}

	user, err := model.GetUserByID(ctx, p.db, old.UserID)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	sess, err := p.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Token refreshed", "userID", user.ID)
	return sess, nil
}

func (p *LocalIdentity) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return model.DeleteSessionByToken(ctx, p.db, accessToken)
}

// createAccount inserts the user and its single default portfolio. A failed
// portfolio insert is logged only: the dashboard renders an empty state.
func (p *LocalIdentity) createAccount(ctx context.Context, user *model.User) error {
	if err := user.CreateUser(ctx, p.db); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	_, err := p.portfolios.Create(ctx, models.Portfolio{
		UserID:      user.ID,
		Name:        defaultPortfolioName,
		Description: defaultPortfolioDescription,
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to create default portfolio for new user", "userID", user.ID, "error", err)
	}
	return nil
}

func (p *LocalIdentity) openSession(ctx context.Context, user *model.User, meta ClientMeta) (*Session, error) {
	if err := user.RecordLogin(ctx, p.db); err != nil {
		logger.FromContext(ctx).Error("Failed to record login", "userID", user.ID, "error", err)
	}
	sess, err := p.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("User signed in", "userID", user.ID)
	return sess, nil
}

func (p *LocalIdentity) issue(ctx context.Context, user *model.User, meta ClientMeta) (*Session, error) {
	accessToken, err := p.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := p.auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	row := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    meta.UserAgent,
		ClientIP:     meta.ClientIP,
		ExpiresAt:    time.Now().Add(p.refreshTTL),
	}
	if err := model.CreateSession(ctx, p.db, row); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(p.auth.AccessTokenTTL()),
	}, nil
}
