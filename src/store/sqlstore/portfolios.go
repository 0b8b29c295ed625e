package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/username/stockfolio/src/models"
)

type portfolioStore struct{ s *Store }

func (p portfolioStore) GetByOwner(ctx context.Context, userID string) (*models.Portfolio, error) {
	row := p.s.q.QueryRowContext(ctx,
		"SELECT id, user_id, name, description, created_at FROM portfolios WHERE user_id = ? LIMIT 1", userID)

	var pf models.Portfolio
	err := row.Scan(&pf.ID, &pf.UserID, &pf.Name, &pf.Description, &pf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pf, nil
}

func (p portfolioStore) Create(ctx context.Context, pf models.Portfolio) (*models.Portfolio, error) {
	pf.ID = p.s.newID()
	pf.CreatedAt = p.s.timestamp()

	_, err := p.s.q.ExecContext(ctx,
		"INSERT INTO portfolios (id, user_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)",
		pf.ID, pf.UserID, pf.Name, pf.Description, pf.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &pf, nil
}
