// Package store defines the row-store collaborator the services read and write
// through. Adapters live in sub-packages: sqlstore (embedded SQLite) and remote
// (hosted PostgREST-style backend).
package store

import (
	"context"
	"errors"

	"github.com/username/stockfolio/src/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// PortfolioStore reads portfolios by owner.
type PortfolioStore interface {
	// GetByOwner returns the user's portfolio, or nil and no error when none exists.
	GetByOwner(ctx context.Context, userID string) (*models.Portfolio, error)
	Create(ctx context.Context, p models.Portfolio) (*models.Portfolio, error)
}

// InvestmentStore persists holdings. Every call is scoped to a portfolio.
type InvestmentStore interface {
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Investment, error)
	Create(ctx context.Context, inv models.Investment) (*models.Investment, error)
	// UpdateHolding changes quantity and current_price only.
	UpdateHolding(ctx context.Context, portfolioID, id string, quantity, currentPrice float64) (*models.Investment, error)
	Delete(ctx context.Context, portfolioID, id string) error
}

// TransactionStore is append-only.
type TransactionStore interface {
	// ListByPortfolio returns transactions newest first.
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	Create(ctx context.Context, txn models.Transaction) (*models.Transaction, error)
}

// WatchlistStore persists watchlist entries scoped to an owner.
type WatchlistStore interface {
	// ListByOwner returns entries newest first.
	ListByOwner(ctx context.Context, userID, portfolioID string) ([]models.WatchlistItem, error)
	Create(ctx context.Context, item models.WatchlistItem) (*models.WatchlistItem, error)
	Delete(ctx context.Context, userID, id string) error
}

// Store groups the four resources.
type Store interface {
	Portfolios() PortfolioStore
	Investments() InvestmentStore
	Transactions() TransactionStore
	Watchlist() WatchlistStore
}

// Atomic is implemented by stores that can run several writes as one unit.
// fn receives a Store bound to the unit of work; returning an error undoes
// every write made through it.
type Atomic interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// Provider hands out a Store bound to the caller's session token.
type Provider interface {
	For(accessToken string) Store
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(accessToken string) Store

func (f ProviderFunc) For(accessToken string) Store { return f(accessToken) }
