package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

// PortfolioService loads the dashboard and writes holdings for the signed-in user.
type PortfolioService struct {
	stores store.Provider
}

func NewPortfolioService(stores store.Provider) *PortfolioService {
	return &PortfolioService{stores: stores}
}

// AddInvestmentResult is the pair of rows written by AddInvestment.
type AddInvestmentResult struct {
	Investment  *models.Investment  `json:"investment"`
	Transaction *models.Transaction `json:"transaction"`
}

// LoadDashboard fetches the user's portfolio, holdings and transactions and
// computes the aggregate metrics. A user without a portfolio gets an empty
// dashboard, not an error.
func (s *PortfolioService) LoadDashboard(ctx context.Context, sess *Session) (*models.Dashboard, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	st := s.stores.For(sess.AccessToken)

	pf, err := st.Portfolios().GetByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch portfolio: %w", err)
	}
	dash := &models.Dashboard{
		Portfolio:    pf,
		Investments:  []models.Investment{},
		Transactions: []models.Transaction{},
	}
	if pf == nil {
		return dash, nil
	}

	if dash.Investments, err = st.Investments().ListByPortfolio(ctx, pf.ID); err != nil {
		return nil, fmt.Errorf("fetch investments: %w", err)
	}
	if dash.Transactions, err = st.Transactions().ListByPortfolio(ctx, pf.ID); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	dash.Metrics = ComputeMetrics(dash.Investments)
	return dash, nil
}

// AddInvestment stores a new holding together with its buy transaction.
// Stores that support transactions write both rows atomically; otherwise a
// failed transaction insert is compensated by deleting the investment again.
func (s *PortfolioService) AddInvestment(ctx context.Context, sess *Session, form NewInvestmentForm) (*AddInvestmentResult, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	st := s.stores.For(sess.AccessToken)
	pf, err := s.portfolioOf(ctx, st, sess)
	if err != nil {
		return nil, err
	}

	inv := models.Investment{
		PortfolioID:   pf.ID,
		Symbol:        form.Symbol,
		Name:          form.Name,
		Type:          form.Type,
		PurchasePrice: form.PurchasePrice,
		Quantity:      form.Quantity,
		CurrentPrice:  form.CurrentPrice,
	}

	if atomic, ok := st.(store.Atomic); ok {
		var res AddInvestmentResult
		err := atomic.WithinTx(ctx, func(tx store.Store) error {
			var err error
			res, err = writeInvestmentPair(ctx, tx, inv)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.FromContext(ctx).Info("Investment added", "portfolioID", pf.ID, "symbol", inv.Symbol)
		return &res, nil
	}

	created, err := st.Investments().Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}
	txn, err := st.Transactions().Create(ctx, buyTransaction(created))
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error("Paired transaction insert failed, removing investment", "investmentID", created.ID, "error", err)
		if delErr := st.Investments().Delete(ctx, pf.ID, created.ID); delErr != nil {
			log.Error("Compensating delete failed", "investmentID", created.ID, "error", delErr)
			return &AddInvestmentResult{Investment: created}, fmt.Errorf("%w: %v", ErrPartialWrite, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRolledBack, err)
	}

	logger.FromContext(ctx).Info("Investment added", "portfolioID", pf.ID, "symbol", inv.Symbol)
	return &AddInvestmentResult{Investment: created, Transaction: txn}, nil
}

func writeInvestmentPair(ctx context.Context, st store.Store, inv models.Investment) (AddInvestmentResult, error) {
	created, err := st.Investments().Create(ctx, inv)
	if err != nil {
		return AddInvestmentResult{}, fmt.Errorf("create investment: %w", err)
	}
	txn, err := st.Transactions().Create(ctx, buyTransaction(created))
	if err != nil {
		return AddInvestmentResult{}, fmt.Errorf("create transaction: %w", err)
	}
	return AddInvestmentResult{Investment: created, Transaction: txn}, nil
}

func buyTransaction(inv *models.Investment) models.Transaction {
	total := decimal.NewFromFloat(inv.PurchasePrice).Mul(decimal.NewFromFloat(inv.Quantity))
	return models.Transaction{
		PortfolioID:  inv.PortfolioID,
		InvestmentID: inv.ID,
		Symbol:       inv.Symbol,
		Name:         inv.Name,
		Type:         models.TransactionBuy,
		Quantity:     inv.Quantity,
		Price:        inv.PurchasePrice,
		TotalAmount:  total.InexactFloat64(),
	}
}

// UpdateInvestment changes quantity and current price of a holding in the
// user's portfolio. No transaction is recorded.
func (s *PortfolioService) UpdateInvestment(ctx context.Context, sess *Session, id string, form EditInvestmentForm) (*models.Investment, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	st := s.stores.For(sess.AccessToken)
	pf, err := s.portfolioOf(ctx, st, sess)
	if err != nil {
		return nil, err
	}

	inv, err := st.Investments().UpdateHolding(ctx, pf.ID, id, form.Quantity, form.CurrentPrice)
	if err != nil {
		return nil, fmt.Errorf("update investment %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("Investment updated", "investmentID", id)
	return inv, nil
}

// DeleteInvestment removes a holding after the caller confirmed it by symbol.
// Its transactions are kept.
func (s *PortfolioService) DeleteInvestment(ctx context.Context, sess *Session, id, confirmSymbol string) (*models.Investment, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	st := s.stores.For(sess.AccessToken)
	pf, err := s.portfolioOf(ctx, st, sess)
	if err != nil {
		return nil, err
	}

	holdings, err := st.Investments().ListByPortfolio(ctx, pf.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch investments: %w", err)
	}
	var target *models.Investment
	for i := range holdings {
		if holdings[i].ID == id {
			target = &holdings[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("delete investment %s: %w", id, store.ErrNotFound)
	}
	if !strings.EqualFold(strings.TrimSpace(confirmSymbol), target.Symbol) {
		return nil, ErrConfirmationMismatch
	}

	if err := st.Investments().Delete(ctx, pf.ID, id); err != nil {
		return nil, fmt.Errorf("delete investment %s: %w", id, err)
	}
	logger.FromContext(ctx).Info("Investment deleted", "investmentID", id, "symbol", target.Symbol)
	return target, nil
}

// Holdings returns the user's current investments, empty when there is no portfolio.
func (s *PortfolioService) Holdings(ctx context.Context, sess *Session) ([]models.Investment, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	st := s.stores.For(sess.AccessToken)
	pf, err := s.portfolioOf(ctx, st, sess)
	if errors.Is(err, ErrNoPortfolio) {
		return []models.Investment{}, nil
	}
	if err != nil {
		return nil, err
	}
	return st.Investments().ListByPortfolio(ctx, pf.ID)
}

// Portfolio returns the user's portfolio or ErrNoPortfolio.
func (s *PortfolioService) Portfolio(ctx context.Context, sess *Session) (*models.Portfolio, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return s.portfolioOf(ctx, s.stores.For(sess.AccessToken), sess)
}

func (s *PortfolioService) portfolioOf(ctx context.Context, st store.Store, sess *Session) (*models.Portfolio, error) {
	pf, err := st.Portfolios().GetByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch portfolio: %w", err)
	}
	if pf == nil {
		return nil, ErrNoPortfolio
	}
	return pf, nil
}
