package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

// MockPortfolioStore is a mock portfolio store for testing
type MockPortfolioStore struct {
	mock.Mock
}

func (m *MockPortfolioStore) GetByOwner(ctx context.Context, userID string) (*models.Portfolio, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioStore) Create(ctx context.Context, p models.Portfolio) (*models.Portfolio, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Portfolio), args.Error(1)
}

// MockInvestmentStore is a mock investment store for testing
type MockInvestmentStore struct {
	mock.Mock
}

func (m *MockInvestmentStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Investment, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Investment), args.Error(1)
}

func (m *MockInvestmentStore) Create(ctx context.Context, inv models.Investment) (*models.Investment, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *MockInvestmentStore) UpdateHolding(ctx context.Context, portfolioID, id string, quantity, currentPrice float64) (*models.Investment, error) {
	args := m.Called(ctx, portfolioID, id, quantity, currentPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investment), args.Error(1)
}

func (m *MockInvestmentStore) Delete(ctx context.Context, portfolioID, id string) error {
	args := m.Called(ctx, portfolioID, id)
	return args.Error(0)
}

// MockTransactionStore is a mock transaction store for testing
type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionStore) Create(ctx context.Context, txn models.Transaction) (*models.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

// MockWatchlistStore is a mock watchlist store for testing
type MockWatchlistStore struct {
	mock.Mock
}

func (m *MockWatchlistStore) ListByOwner(ctx context.Context, userID, portfolioID string) ([]models.WatchlistItem, error) {
	args := m.Called(ctx, userID, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistStore) Create(ctx context.Context, item models.WatchlistItem) (*models.WatchlistItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistStore) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// mockStore bundles the mocks into a non-transactional store.Store.
type mockStore struct {
	portfolios   *MockPortfolioStore
	investments  *MockInvestmentStore
	transactions *MockTransactionStore
	watchlist    *MockWatchlistStore
	tokens       []string
}

func newMockStore() *mockStore {
	return &mockStore{
		portfolios:   &MockPortfolioStore{},
		investments:  &MockInvestmentStore{},
		transactions: &MockTransactionStore{},
		watchlist:    &MockWatchlistStore{},
	}
}

func (m *mockStore) Portfolios() store.PortfolioStore     { return m.portfolios }
func (m *mockStore) Investments() store.InvestmentStore   { return m.investments }
func (m *mockStore) Transactions() store.TransactionStore { return m.transactions }
func (m *mockStore) Watchlist() store.WatchlistStore      { return m.watchlist }

func (m *mockStore) provider() store.Provider {
	return store.ProviderFunc(func(token string) store.Store {
		m.tokens = append(m.tokens, token)
		return m
	})
}

func (m *mockStore) assertExpectations(t mock.TestingT) {
	m.portfolios.AssertExpectations(t)
	m.investments.AssertExpectations(t)
	m.transactions.AssertExpectations(t)
	m.watchlist.AssertExpectations(t)
}

var testSession = &Session{UserID: "user-1", Email: "jane@example.com", AccessToken: "token-1"}
