package services

import (
	"context"
	"fmt"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

// WatchlistService manages symbols the user tracks without holding them.
type WatchlistService struct {
	stores store.Provider
}

func NewWatchlistService(stores store.Provider) *WatchlistService {
	return &WatchlistService{stores: stores}
}

// List returns the user's entries for portfolioID, newest first. An empty
// portfolioID is the no-portfolio guard and returns ErrNoPortfolio.
func (s *WatchlistService) List(ctx context.Context, sess *Session, portfolioID string) ([]models.WatchlistItem, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if portfolioID == "" {
		return nil, ErrNoPortfolio
	}
	items, err := s.stores.For(sess.AccessToken).Watchlist().ListByOwner(ctx, sess.UserID, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}
	return items, nil
}

func (s *WatchlistService) Add(ctx context.Context, sess *Session, portfolioID string, form WatchlistForm) (*models.WatchlistItem, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if portfolioID == "" {
		return nil, ErrNoPortfolio
	}

	item, err := s.stores.For(sess.AccessToken).Watchlist().Create(ctx, models.WatchlistItem{
		UserID:      sess.UserID,
		PortfolioID: portfolioID,
		Symbol:      form.Symbol,
		Name:        form.Name,
		Sector:      form.Sector,
		Notes:       form.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("add to watchlist: %w", err)
	}
	logger.FromContext(ctx).Info("Watchlist item added", "symbol", item.Symbol)
	return item, nil
}

// Remove deletes an entry owned by the user. No confirmation is required.
func (s *WatchlistService) Remove(ctx context.Context, sess *Session, id string) error {
	if sess == nil {
		return ErrNotAuthenticated
	}
	if err := s.stores.For(sess.AccessToken).Watchlist().Delete(ctx, sess.UserID, id); err != nil {
		return fmt.Errorf("remove watchlist item %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("Watchlist item removed", "watchlistID", id)
	return nil
}
