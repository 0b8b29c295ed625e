package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/stockfolio/src/models"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a session and none was given.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is returned by sign-in for an unknown e-mail or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned by sign-up when the address already has an account.
	ErrEmailTaken = errors.New("email address already in use")
	// ErrConfirmationRequired is returned by sign-up when the account exists but
	// the identity service will not issue a session until the e-mail is confirmed.
	ErrConfirmationRequired = errors.New("email confirmation required")
	// ErrNoPortfolio guards writes when the user has no portfolio loaded.
	ErrNoPortfolio = errors.New("no portfolio")
	// ErrRolledBack means the paired transaction insert failed and the investment
	// was removed again: nothing was written.
	ErrRolledBack = errors.New("investment write rolled back")
	// ErrPartialWrite means the investment was stored but its paired transaction
	// was not, and the investment could not be removed again.
	ErrPartialWrite = errors.New("investment stored without its transaction")
	// ErrConfirmationMismatch is returned when a delete is not confirmed with the holding's symbol.
	ErrConfirmationMismatch = errors.New("delete not confirmed")
)

// Session is the signed-in user as seen by the services. It is passed
// explicitly to every operation that reads or writes user rows.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ClientMeta describes the device opening a session.
type ClientMeta struct {
	UserAgent string
	ClientIP  string
}

// IdentityProvider owns the session lifecycle.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, meta ClientMeta) (*Session, error)
	SignIn(ctx context.Context, email, password string, meta ClientMeta) (*Session, error)
	// CurrentUser resolves an access token. It returns ErrNotAuthenticated for a
	// missing, expired or revoked token.
	CurrentUser(ctx context.Context, accessToken string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ExternalSignIn is implemented by providers that accept identities verified
// by a third party, such as Google sign-in.
type ExternalSignIn interface {
	SignInExternal(ctx context.Context, provider, email string, meta ClientMeta) (*Session, error)
}

// RecommendationSource produces candidate symbols for a set of holdings.
type RecommendationSource interface {
	Candidates(ctx context.Context, holdings []models.Investment) ([]models.Recommendation, error)
}
