package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/model"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

// stepClock advances one second per call so ordering by timestamp is deterministic.
func stepClock() func() time.Time {
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *sql.DB, string) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	u := &model.User{Email: "owner@example.com", Password: "hash"}
	require.NoError(t, u.CreateUser(context.Background(), db))

	return New(db, WithClock(stepClock())), db, u.ID
}

func createPortfolio(t *testing.T, s *Store, userID string) *models.Portfolio {
	t.Helper()
	pf, err := s.Portfolios().Create(context.Background(), models.Portfolio{UserID: userID, Name: "Main Portfolio"})
	require.NoError(t, err)
	return pf
}

func TestPortfolios(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)

	none, err := s.Portfolios().GetByOwner(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, none)

	created := createPortfolio(t, s, userID)
	assert.NotEmpty(t, created.ID)

	got, err := s.Portfolios().GetByOwner(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Main Portfolio", got.Name)

	_, err = s.Portfolios().Create(ctx, models.Portfolio{UserID: userID, Name: "Second"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestInvestments_UpdateTouchesOnlyHoldingFields(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)
	pf := createPortfolio(t, s, userID)

	inv, err := s.Investments().Create(ctx, models.Investment{
		PortfolioID: pf.ID, Symbol: "AAPL", Name: "Apple Inc.", Type: models.InvestmentStock,
		PurchasePrice: 150, Quantity: 10, CurrentPrice: 175,
	})
	require.NoError(t, err)

	updated, err := s.Investments().UpdateHolding(ctx, pf.ID, inv.ID, 12, 180)
	require.NoError(t, err)
	assert.Equal(t, 12.0, updated.Quantity)
	assert.Equal(t, 180.0, updated.CurrentPrice)
	assert.Equal(t, 150.0, updated.PurchasePrice)
	assert.Equal(t, "AAPL", updated.Symbol)
	assert.Equal(t, models.InvestmentStock, updated.Type)

	_, err = s.Investments().UpdateHolding(ctx, "other-portfolio", inv.ID, 1, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.Investments().ListByPortfolio(ctx, pf.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 12.0, list[0].Quantity)
}

func TestInvestments_DeleteKeepsTransactions(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)
	pf := createPortfolio(t, s, userID)

	inv, err := s.Investments().Create(ctx, models.Investment{
		PortfolioID: pf.ID, Symbol: "MSFT", Name: "Microsoft", Type: models.InvestmentStock,
		PurchasePrice: 300, Quantity: 2, CurrentPrice: 310,
	})
	require.NoError(t, err)
	_, err = s.Transactions().Create(ctx, models.Transaction{
		PortfolioID: pf.ID, InvestmentID: inv.ID, Symbol: "MSFT", Name: "Microsoft",
		Type: models.TransactionBuy, Quantity: 2, Price: 300, TotalAmount: 600,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Investments().Delete(ctx, "other-portfolio", inv.ID), store.ErrNotFound)
	require.NoError(t, s.Investments().Delete(ctx, pf.ID, inv.ID))
	assert.ErrorIs(t, s.Investments().Delete(ctx, pf.ID, inv.ID), store.ErrNotFound)

	txns, err := s.Transactions().ListByPortfolio(ctx, pf.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, inv.ID, txns[0].InvestmentID)
}

func TestTransactions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)
	pf := createPortfolio(t, s, userID)

	for _, sym := range []string{"A", "B", "C"} {
		_, err := s.Transactions().Create(ctx, models.Transaction{
			PortfolioID: pf.ID, Symbol: sym, Name: sym, Type: models.TransactionBuy, Quantity: 1, Price: 1, TotalAmount: 1,
		})
		require.NoError(t, err)
	}

	txns, err := s.Transactions().ListByPortfolio(ctx, pf.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{txns[0].Symbol, txns[1].Symbol, txns[2].Symbol})
	assert.True(t, txns[0].TransactionDate.After(txns[1].TransactionDate))
}

func TestWatchlist(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)
	pf := createPortfolio(t, s, userID)

	sector := "Technology"
	first, err := s.Watchlist().Create(ctx, models.WatchlistItem{
		UserID: userID, PortfolioID: pf.ID, Symbol: "NVDA", Name: "NVIDIA", Sector: &sector,
	})
	require.NoError(t, err)
	_, err = s.Watchlist().Create(ctx, models.WatchlistItem{
		UserID: userID, PortfolioID: pf.ID, Symbol: "JPM", Name: "JPMorgan",
	})
	require.NoError(t, err)

	items, err := s.Watchlist().ListByOwner(ctx, userID, pf.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "JPM", items[0].Symbol)
	assert.Nil(t, items[0].Sector)
	assert.Nil(t, items[0].Notes)
	require.NotNil(t, items[1].Sector)
	assert.Equal(t, "Technology", *items[1].Sector)

	assert.ErrorIs(t, s.Watchlist().Delete(ctx, "someone-else", first.ID), store.ErrNotFound)
	require.NoError(t, s.Watchlist().Delete(ctx, userID, first.ID))

	items, err = s.Watchlist().ListByOwner(ctx, userID, pf.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newTestStore(t)
	pf := createPortfolio(t, s, userID)

	var _ store.Atomic = s
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx store.Store) error {
		_, err := tx.Investments().Create(ctx, models.Investment{
			PortfolioID: pf.ID, Symbol: "TSLA", Name: "Tesla", Type: models.InvestmentStock, Quantity: 1,
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := s.Investments().ListByPortfolio(ctx, pf.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = s.WithinTx(ctx, func(tx store.Store) error {
		_, err := tx.Investments().Create(ctx, models.Investment{
			PortfolioID: pf.ID, Symbol: "TSLA", Name: "Tesla", Type: models.InvestmentStock, Quantity: 1,
		})
		return err
	})
	require.NoError(t, err)

	list, err = s.Investments().ListByPortfolio(ctx, pf.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
