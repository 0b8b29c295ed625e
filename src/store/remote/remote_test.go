package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/store"
)

type recorded struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), header: r.Header.Clone()}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key", time.Second), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestRowStore_ListSendsFiltersAndSessionToken(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "t2", "portfolio_id": "p1", "symbol": "MSFT", "type": "buy", "total_amount": 600, "transaction_date": "2024-02-01T10:00:00Z"},
			{"id": "t1", "portfolio_id": "p1", "symbol": "AAPL", "type": "buy", "total_amount": 1500, "transaction_date": "2024-01-01T10:00:00Z"},
		})
	})

	txns, err := client.For("user-token").Transactions().ListByPortfolio(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "MSFT", txns[0].Symbol)
	assert.Equal(t, models.TransactionBuy, txns[0].Type)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/rest/v1/transactions", call.path)
	assert.Equal(t, []string{"eq.p1"}, call.query["portfolio_id"])
	assert.Equal(t, []string{"transaction_date.desc"}, call.query["order"])
	assert.Equal(t, "anon-key", call.header.Get("apikey"))
	assert.Equal(t, "Bearer user-token", call.header.Get("Authorization"))
}

func TestRowStore_GetByOwnerEmpty(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	pf, err := client.For("tok").Portfolios().GetByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, pf)
}

func TestRowStore_CreateInvestmentOmitsServerFields(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, []map[string]any{
			{"id": "inv-1", "portfolio_id": "p1", "symbol": "AAPL", "name": "Apple", "type": "stock",
				"purchase_price": 150, "quantity": 10, "current_price": 175, "created_at": "2024-01-01T10:00:00Z"},
		})
	})

	inv, err := client.For("tok").Investments().Create(context.Background(), models.Investment{
		PortfolioID: "p1", Symbol: "AAPL", Name: "Apple", Type: models.InvestmentStock,
		PurchasePrice: 150, Quantity: 10, CurrentPrice: 175,
	})
	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ID)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "return=representation", call.header.Get("Prefer"))
	assert.NotContains(t, call.body, "id")
	assert.NotContains(t, call.body, "created_at")
	assert.Equal(t, "AAPL", call.body["symbol"])
}

func TestRowStore_UpdateHoldingSendsOnlyTwoFields(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "inv-1", "quantity": 12, "current_price": 180}})
	})

	inv, err := client.For("tok").Investments().UpdateHolding(context.Background(), "p1", "inv-1", 12, 180)
	require.NoError(t, err)
	assert.Equal(t, 12.0, inv.Quantity)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPatch, call.method)
	assert.Equal(t, []string{"eq.inv-1"}, call.query["id"])
	assert.Equal(t, []string{"eq.p1"}, call.query["portfolio_id"])
	assert.Len(t, call.body, 2)
	assert.Equal(t, 12.0, call.body["quantity"])
	assert.Equal(t, 180.0, call.body["current_price"])
}

func TestRowStore_ZeroAffectedRowsIsNotFound(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	rows := client.For("tok")

	_, err := rows.Investments().UpdateHolding(context.Background(), "p1", "missing", 1, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, rows.Investments().Delete(context.Background(), "p1", "missing"), store.ErrNotFound)
	assert.ErrorIs(t, rows.Watchlist().Delete(context.Background(), "u1", "missing"), store.ErrNotFound)
}

func TestRowStore_WatchlistNullFields(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, []map[string]any{
			{"id": "w1", "user_id": "u1", "portfolio_id": "p1", "symbol": "JPM", "name": "JPMorgan", "sector": nil, "notes": nil},
		})
	})

	item, err := client.For("tok").Watchlist().Create(context.Background(), models.WatchlistItem{
		UserID: "u1", PortfolioID: "p1", Symbol: "JPM", Name: "JPMorgan",
	})
	require.NoError(t, err)
	assert.Nil(t, item.Sector)

	body := (*calls)[0].body
	require.Contains(t, body, "sector")
	assert.Nil(t, body["sector"])
	assert.Nil(t, body["notes"])
}

func TestAPIError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code": "23505", "message": "duplicate key value violates unique constraint",
		})
	})

	_, err := client.For("tok").Portfolios().Create(context.Background(), models.Portfolio{UserID: "u1", Name: "Main"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "23505", apiErr.Code)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestAuth_SignInAndUser(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			if r.URL.Query().Get("grant_type") == "password" {
				writeJSON(w, http.StatusOK, map[string]any{
					"access_token": "at", "refresh_token": "rt", "expires_in": 3600,
					"user": map[string]any{"id": "u1", "email": "jane@example.com"},
				})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid Refresh Token"})
		case "/auth/v1/user":
			writeJSON(w, http.StatusOK, map[string]any{"id": "u1", "email": "jane@example.com"})
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	sess, err := client.SignInWithPassword(ctx, "jane@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at", sess.AccessToken)
	assert.Equal(t, "u1", sess.User.ID)
	now := time.Now()
	assert.WithinDuration(t, now.Add(time.Hour), sess.Expiry(now), time.Second)

	user, err := client.GetUser(ctx, "at")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)

	_, err = client.RefreshSession(ctx, "bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid Refresh Token", apiErr.Message)

	require.NoError(t, client.SignOut(ctx, "at"))

	assert.Equal(t, "Bearer anon-key", (*calls)[0].header.Get("Authorization"))
	assert.Equal(t, "Bearer at", (*calls)[1].header.Get("Authorization"))
}

func TestAuth_SignUpPendingConfirmation(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "u2", "email": "new@example.com"})
	})

	sess, user, err := client.SignUp(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, "u2", user.ID)
}
