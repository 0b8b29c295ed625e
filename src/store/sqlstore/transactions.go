package sqlstore

import (
	"context"

	"github.com/username/stockfolio/src/models"
)

type transactionStore struct{ s *Store }

func (t transactionStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	rows, err := t.s.q.QueryContext(ctx, `
		SELECT id, portfolio_id, investment_id, symbol, name, type, quantity, price, total_amount, transaction_date
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY transaction_date DESC, id DESC`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := []models.Transaction{}
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.PortfolioID, &txn.InvestmentID, &txn.Symbol, &txn.Name, &txn.Type,
			&txn.Quantity, &txn.Price, &txn.TotalAmount, &txn.TransactionDate); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (t transactionStore) Create(ctx context.Context, txn models.Transaction) (*models.Transaction, error) {
	txn.ID = t.s.newID()
	txn.TransactionDate = t.s.timestamp()

	_, err := t.s.q.ExecContext(ctx, `
		INSERT INTO transactions (id, portfolio_id, investment_id, symbol, name, type, quantity, price, total_amount, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.PortfolioID, txn.InvestmentID, txn.Symbol, txn.Name, txn.Type,
		txn.Quantity, txn.Price, txn.TotalAmount, txn.TransactionDate)
	if err != nil {
		return nil, mapErr(err)
	}
	return &txn, nil
}
