package sqlstore

import (
	"context"
	"database/sql"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

type watchlistStore struct{ s *Store }

func (w watchlistStore) ListByOwner(ctx context.Context, userID, portfolioID string) ([]models.WatchlistItem, error) {
	rows, err := w.s.q.QueryContext(ctx, `
		SELECT id, user_id, portfolio_id, symbol, name, sector, notes, added_at
		FROM watchlist
		WHERE user_id = ? AND portfolio_id = ?
		ORDER BY added_at DESC, id DESC`, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.WatchlistItem{}
	for rows.Next() {
		var item models.WatchlistItem
		var sector, notes sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.PortfolioID, &item.Symbol, &item.Name,
			&sector, &notes, &item.AddedAt); err != nil {
			return nil, err
		}
		item.Sector = stringPtr(sector)
		item.Notes = stringPtr(notes)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (w watchlistStore) Create(ctx context.Context, item models.WatchlistItem) (*models.WatchlistItem, error) {
	item.ID = w.s.newID()
	item.AddedAt = w.s.timestamp()

	_, err := w.s.q.ExecContext(ctx, `
		INSERT INTO watchlist (id, user_id, portfolio_id, symbol, name, sector, notes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.PortfolioID, item.Symbol, item.Name,
		nullString(item.Sector), nullString(item.Notes), item.AddedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

func (w watchlistStore) Delete(ctx context.Context, userID, id string) error {
	res, err := w.s.q.ExecContext(ctx, "DELETE FROM watchlist WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
