package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

const (
	tablePortfolios   = "portfolios"
	tableInvestments  = "investments"
	tableTransactions = "transactions"
	tableWatchlist    = "watchlist"
)

var returnRepresentation = map[string]string{"Prefer": "return=representation"}

// For returns a Store whose requests carry the caller's access token, so the
// backend's row policies see the signed-in user.
func (c *Client) For(accessToken string) store.Store {
	return &rowStore{c: c, token: accessToken}
}

type rowStore struct {
	c     *Client
	token string
}

func (s *rowStore) Portfolios() store.PortfolioStore     { return portfolioRows{s} }
func (s *rowStore) Investments() store.InvestmentStore   { return investmentRows{s} }
func (s *rowStore) Transactions() store.TransactionStore { return transactionRows{s} }
func (s *rowStore) Watchlist() store.WatchlistStore      { return watchlistRows{s} }

func eq(v string) string { return "eq." + v }

func (s *rowStore) selectRows(ctx context.Context, table string, filters url.Values, out any) error {
	q := url.Values{"select": {"*"}}
	for k, v := range filters {
		q[k] = v
	}
	return s.c.do(ctx, request{method: http.MethodGet, path: restPrefix + table, query: q, token: s.token}, out)
}

// insertRow posts one row and decodes the stored representation into out.
func insertRow[T any](ctx context.Context, s *rowStore, table string, row any) (*T, error) {
	var created []T
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   restPrefix + table,
		token:  s.token,
		body:   row,
		header: returnRepresentation,
	}, &created)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, store.ErrNotFound
	}
	return &created[0], nil
}

type portfolioRows struct{ s *rowStore }

func (p portfolioRows) GetByOwner(ctx context.Context, userID string) (*models.Portfolio, error) {
	var rows []models.Portfolio
	err := p.s.selectRows(ctx, tablePortfolios, url.Values{"user_id": {eq(userID)}, "limit": {"1"}}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type portfolioInsert struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (p portfolioRows) Create(ctx context.Context, pf models.Portfolio) (*models.Portfolio, error) {
	return insertRow[models.Portfolio](ctx, p.s, tablePortfolios, portfolioInsert{
		UserID: pf.UserID, Name: pf.Name, Description: pf.Description,
	})
}

type investmentRows struct{ s *rowStore }

func (i investmentRows) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Investment, error) {
	rows := []models.Investment{}
	err := i.s.selectRows(ctx, tableInvestments, url.Values{
		"portfolio_id": {eq(portfolioID)},
		"order":        {"created_at.asc"},
	}, &rows)
	return rows, err
}

type investmentInsert struct {
	PortfolioID   string                `json:"portfolio_id"`
	Symbol        string                `json:"symbol"`
	Name          string                `json:"name"`
	Type          models.InvestmentType `json:"type"`
	PurchasePrice float64               `json:"purchase_price"`
	Quantity      float64               `json:"quantity"`
	CurrentPrice  float64               `json:"current_price"`
}

func (i investmentRows) Create(ctx context.Context, inv models.Investment) (*models.Investment, error) {
	return insertRow[models.Investment](ctx, i.s, tableInvestments, investmentInsert{
		PortfolioID:   inv.PortfolioID,
		Symbol:        inv.Symbol,
		Name:          inv.Name,
		Type:          inv.Type,
		PurchasePrice: inv.PurchasePrice,
		Quantity:      inv.Quantity,
		CurrentPrice:  inv.CurrentPrice,
	})
}

func (i investmentRows) UpdateHolding(ctx context.Context, portfolioID, id string, quantity, currentPrice float64) (*models.Investment, error) {
	var updated []models.Investment
	err := i.s.c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPrefix + tableInvestments,
		query:  url.Values{"id": {eq(id)}, "portfolio_id": {eq(portfolioID)}},
		token:  i.s.token,
		body: map[string]float64{
			"quantity":      quantity,
			"current_price": currentPrice,
		},
		header: returnRepresentation,
	}, &updated)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, store.ErrNotFound
	}
	return &updated[0], nil
}

func (i investmentRows) Delete(ctx context.Context, portfolioID, id string) error {
	var deleted []models.Investment
	err := i.s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPrefix + tableInvestments,
		query:  url.Values{"id": {eq(id)}, "portfolio_id": {eq(portfolioID)}},
		token:  i.s.token,
		header: returnRepresentation,
	}, &deleted)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return store.ErrNotFound
	}
	return nil
}

type transactionRows struct{ s *rowStore }

func (t transactionRows) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	rows := []models.Transaction{}
	err := t.s.selectRows(ctx, tableTransactions, url.Values{
		"portfolio_id": {eq(portfolioID)},
		"order":        {"transaction_date.desc"},
	}, &rows)
	return rows, err
}

type transactionInsert struct {
	PortfolioID  string                 `json:"portfolio_id"`
	InvestmentID string                 `json:"investment_id"`
	Symbol       string                 `json:"symbol"`
	Name         string                 `json:"name"`
	Type         models.TransactionType `json:"type"`
	Quantity     float64                `json:"quantity"`
	Price        float64                `json:"price"`
	TotalAmount  float64                `json:"total_amount"`
}

func (t transactionRows) Create(ctx context.Context, txn models.Transaction) (*models.Transaction, error) {
	return insertRow[models.Transaction](ctx, t.s, tableTransactions, transactionInsert{
		PortfolioID:  txn.PortfolioID,
		InvestmentID: txn.InvestmentID,
		Symbol:       txn.Symbol,
		Name:         txn.Name,
		Type:         txn.Type,
		Quantity:     txn.Quantity,
		Price:        txn.Price,
		TotalAmount:  txn.TotalAmount,
	})
}

type watchlistRows struct{ s *rowStore }

func (w watchlistRows) ListByOwner(ctx context.Context, userID, portfolioID string) ([]models.WatchlistItem, error) {
	rows := []models.WatchlistItem{}
	err := w.s.selectRows(ctx, tableWatchlist, url.Values{
		"user_id":      {eq(userID)},
		"portfolio_id": {eq(portfolioID)},
		"order":        {"added_at.desc"},
	}, &rows)
	return rows, err
}

type watchlistInsert struct {
	UserID      string  `json:"user_id"`
	PortfolioID string  `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Sector      *string `json:"sector"`
	Notes       *string `json:"notes"`
}

func (w watchlistRows) Create(ctx context.Context, item models.WatchlistItem) (*models.WatchlistItem, error) {
	return insertRow[models.WatchlistItem](ctx, w.s, tableWatchlist, watchlistInsert{
		UserID:      item.UserID,
		PortfolioID: item.PortfolioID,
		Symbol:      item.Symbol,
		Name:        item.Name,
		Sector:      item.Sector,
		Notes:       item.Notes,
	})
}

func (w watchlistRows) Delete(ctx context.Context, userID, id string) error {
	var deleted []models.WatchlistItem
	err := w.s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPrefix + tableWatchlist,
		query:  url.Values{"id": {eq(id)}, "user_id": {eq(userID)}},
		token:  w.s.token,
		header: returnRepresentation,
	}, &deleted)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return store.ErrNotFound
	}
	return nil
}
