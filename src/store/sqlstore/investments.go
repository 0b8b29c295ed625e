package sqlstore

import (
	"context"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

const investmentColumns = "id, portfolio_id, symbol, name, type, purchase_price, quantity, current_price, created_at"

type investmentStore struct{ s *Store }

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(r scanner) (models.Investment, error) {
	var inv models.Investment
	err := r.Scan(&inv.ID, &inv.PortfolioID, &inv.Symbol, &inv.Name, &inv.Type,
		&inv.PurchasePrice, &inv.Quantity, &inv.CurrentPrice, &inv.CreatedAt)
	return inv, err
}

func (i investmentStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Investment, error) {
	rows, err := i.s.q.QueryContext(ctx,
		"SELECT "+investmentColumns+" FROM investments WHERE portfolio_id = ? ORDER BY created_at ASC", portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func (i investmentStore) Create(ctx context.Context, inv models.Investment) (*models.Investment, error) {
	inv.ID = i.s.newID()
	inv.CreatedAt = i.s.timestamp()

	_, err := i.s.q.ExecContext(ctx,
		"INSERT INTO investments ("+investmentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		inv.ID, inv.PortfolioID, inv.Symbol, inv.Name, inv.Type,
		inv.PurchasePrice, inv.Quantity, inv.CurrentPrice, inv.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (i investmentStore) UpdateHolding(ctx context.Context, portfolioID, id string, quantity, currentPrice float64) (*models.Investment, error) {
	res, err := i.s.q.ExecContext(ctx,
		"UPDATE investments SET quantity = ?, current_price = ? WHERE id = ? AND portfolio_id = ?",
		quantity, currentPrice, id, portfolioID)
	if err != nil {
		return nil, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}

	row := i.s.q.QueryRowContext(ctx,
		"SELECT "+investmentColumns+" FROM investments WHERE id = ? AND portfolio_id = ?", id, portfolioID)
	inv, err := scanInvestment(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

func (i investmentStore) Delete(ctx context.Context, portfolioID, id string) error {
	res, err := i.s.q.ExecContext(ctx, "DELETE FROM investments WHERE id = ? AND portfolio_id = ?", id, portfolioID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
