package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/model"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/store/sqlstore"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newLocalIdentity(t *testing.T) (*LocalIdentity, *sqlstore.Store) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	st := sqlstore.New(db)
	auth := security.NewAuthService(testJWTSecret, time.Hour)
	return NewLocalIdentity(db, auth, st.Portfolios(), 24*time.Hour), st
}

var testMeta = ClientMeta{UserAgent: "go-test", ClientIP: "127.0.0.1"}

func TestLocalIdentity_SignUpCreatesDefaultPortfolio(t *testing.T) {
	ctx := context.Background()
	id, st := newLocalIdentity(t)

	sess, err := id.SignUp(ctx, "jane@example.com", "secret1", testMeta)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.UserID)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Len(t, sess.RefreshToken, 64)
	assert.Equal(t, "jane@example.com", sess.Email)

	pf, err := st.Portfolios().GetByOwner(ctx, sess.UserID)
	require.NoError(t, err)
	require.NotNil(t, pf)
	assert.Equal(t, "Main Portfolio", pf.Name)
	assert.Equal(t, "Default Portfolio", pf.Description)
}

func TestLocalIdentity_SignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	id, _ := newLocalIdentity(t)

	_, err := id.SignUp(ctx, "jane@example.com", "secret1", testMeta)
	require.NoError(t, err)
	_, err = id.SignUp(ctx, "jane@example.com", "another", testMeta)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLocalIdentity_SignIn(t *testing.T) {
	ctx := context.Background()
	id, _ := newLocalIdentity(t)
	created, err := id.SignUp(ctx, "jane@example.com", "secret1", testMeta)
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		sess, err := id.SignIn(ctx, "jane@example.com", "secret1", testMeta)
		require.NoError(t, err)
		assert.Equal(t, created.UserID, sess.UserID)
		assert.NotEqual(t, created.AccessToken, sess.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := id.SignIn(ctx, "jane@example.com", "wrong-pass", testMeta)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := id.SignIn(ctx, "nobody@example.com", "secret1", testMeta)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("login is recorded", func(t *testing.T) {
		u, err := model.GetUserByID(ctx, id.db, created.UserID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, u.LoginCount, 2)
		assert.True(t, u.LastLoginAt.Valid)
	})
}

func TestLocalIdentity_CurrentUserAndSignOut(t *testing.T) {
	ctx := context.Background()
	id, _ := newLocalIdentity(t)
	sess, err := id.SignUp(ctx, "jane@example.com", "secret1", testMeta)
	require.NoError(t, err)

	current, err := id.CurrentUser(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, current.UserID)
	assert.Equal(t, "jane@example.com", current.Email)

	_, err = id.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = id.CurrentUser(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, id.SignOut(ctx, sess.AccessToken))
	_, err = id.CurrentUser(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLocalIdentity_RefreshIsSingleUse(t *testing.T) {
	ctx := context.Background()
	id, _ := newLocalIdentity(t)
	sess, err := id.SignUp(ctx, "jane@example.com", "secret1", testMeta)
	require.NoError(t, err)

	renewed, err := id.Refresh(ctx, sess.RefreshToken, testMeta)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, renewed.UserID)
	assert.NotEqual(t, sess.RefreshToken, renewed.RefreshToken)

	_, err = id.Refresh(ctx, sess.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// The old access token went with its session row.
	_, err = id.CurrentUser(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = id.CurrentUser(ctx, renewed.AccessToken)
	assert.NoError(t, err)
}

func TestLocalIdentity_SignInExternal(t *testing.T) {
	ctx := context.Background()
	id, st := newLocalIdentity(t)

	first, err := id.SignInExternal(ctx, model.ProviderGoogle, "g@example.com", testMeta)
	require.NoError(t, err)
	second, err := id.SignInExternal(ctx, model.ProviderGoogle, "g@example.com", testMeta)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)

	pf, err := st.Portfolios().GetByOwner(ctx, first.UserID)
	require.NoError(t, err)
	assert.NotNil(t, pf)

	// Password sign-in is refused for accounts created through a provider.
	_, err = id.SignIn(ctx, "g@example.com", "anything", testMeta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = id.SignUp(ctx, "local@example.com", "secret1", testMeta)
	require.NoError(t, err)
	_, err = id.SignInExternal(ctx, model.ProviderGoogle, "local@example.com", testMeta)
	assert.ErrorIs(t, err, ErrEmailTaken)
}
