// Package model persists local accounts and their sessions.
package model

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("session not found, expired, or blocked")
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	LoginCount   int       `json:"login_count"`
	LastLoginAt  NullTime  `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NullTime is sql.NullTime that marshals to null when unset.
type NullTime sql.NullTime

func (nt NullTime) MarshalJSON() ([]byte, error) {
	if !nt.Valid {
		return []byte("null"), nil
	}
	return nt.Time.MarshalJSON()
}

func (u *User) CreateUser(ctx context.Context, db DBTX) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AuthProvider == "" {
		u.AuthProvider = ProviderLocal
	}

	_, err := db.ExecContext(ctx, `
	INSERT INTO users (id, email, password, auth_provider, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Password, u.AuthProvider, u.CreatedAt, u.UpdatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrUserExists
	}
	return err
}

const userColumns = "id, email, password, auth_provider, login_count, last_login_at, created_at, updated_at"

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var lastLoginAt sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.Password, &user.AuthProvider,
		&user.LoginCount, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.LastLoginAt = NullTime(lastLoginAt)
	return &user, nil
}

func GetUserByID(ctx context.Context, db DBTX, id string) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func GetUserByEmail(ctx context.Context, db DBTX, email string) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

// RecordLogin bumps the login counter and timestamp.
func (u *User) RecordLogin(ctx context.Context, db DBTX) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
	UPDATE users
	SET login_count = login_count + 1, last_login_at = ?, updated_at = ?
	WHERE id = ?`, now, now, u.ID)
	if err != nil {
		return err
	}
	u.LoginCount++
	u.LastLoginAt = NullTime{Time: now, Valid: true}
	u.UpdatedAt = now
	return nil
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func CreateSession(ctx context.Context, db DBTX, session *Session) error {
	session.CreatedAt = time.Now().UTC()
	res, err := db.ExecContext(ctx, `
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.UserAgent,
		session.ClientIP,
		session.IsBlocked,
		session.ExpiresAt.UTC(),
		session.CreatedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		session.ID = id
	}
	return nil
}

const sessionColumns = "id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at"

func scanSession(row *sql.Row) (*Session, error) {
	var session Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.RefreshToken,
		&session.UserAgent,
		&session.ClientIP,
		&session.IsBlocked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionByToken returns a live, unblocked session for an access token.
func GetSessionByToken(ctx context.Context, db DBTX, token string) (*Session, error) {
	return scanSession(db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE token = ? AND is_blocked = FALSE AND expires_at > ?",
		token, time.Now().UTC()))
}

// GetSessionByRefreshToken returns a live, unblocked session for a refresh token.
func GetSessionByRefreshToken(ctx context.Context, db DBTX, refreshToken string) (*Session, error) {
	return scanSession(db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE refresh_token = ? AND is_blocked = FALSE AND expires_at > ?",
		refreshToken, time.Now().UTC()))
}

func DeleteSessionByToken(ctx context.Context, db DBTX, token string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteSessionByRefreshToken reports ErrSessionNotFound when nothing was removed,
// so a refresh token can be redeemed only once.
func DeleteSessionByRefreshToken(ctx context.Context, db DBTX, refreshToken string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE refresh_token = ?", refreshToken)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
