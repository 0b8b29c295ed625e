package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/utils"
)

type WatchlistHandler struct {
	watchlist  *services.WatchlistService
	portfolios *services.PortfolioService
}

func NewWatchlistHandler(watchlist *services.WatchlistService, portfolios *services.PortfolioService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, portfolios: portfolios}
}

// portfolioID uses the explicit id when given, else the caller's own portfolio.
func (h *WatchlistHandler) portfolioID(r *http.Request, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	sess, _ := SessionFromContext(r.Context())
	pf, err := h.portfolios.Portfolio(r.Context(), sess)
	if err != nil {
		return "", err
	}
	return pf.ID, nil
}

func (h *WatchlistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	portfolioID, err := h.portfolioID(r, r.URL.Query().Get("portfolio_id"))
	if errors.Is(err, services.ErrNoPortfolio) {
		utils.WriteJSON(w, http.StatusOK, []models.WatchlistItem{})
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve portfolio for watchlist", "error", err)
		utils.SendJSONError(w, "Failed to load watchlist items.", http.StatusInternalServerError)
		return
	}

	items, err := h.watchlist.List(r.Context(), sess, portfolioID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list watchlist", "error", err)
		utils.SendJSONError(w, "Failed to load watchlist items.", statusFor(err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

func (h *WatchlistHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	form, err := services.ParseWatchlistForm(values)
	if err != nil {
		sendValidationError(w, err)
		return
	}

	portfolioID, err := h.portfolioID(r, "")
	if err == nil {
		var item *models.WatchlistItem
		if item, err = h.watchlist.Add(r.Context(), sess, portfolioID, form); err == nil {
			utils.WriteJSON(w, http.StatusCreated, item)
			return
		}
	}
	if errors.Is(err, services.ErrNoPortfolio) {
		utils.SendJSONError(w, "No portfolio found", http.StatusNotFound)
		return
	}
	logger.FromContext(r.Context()).Error("Failed to add watchlist item", "symbol", form.Symbol, "error", err)
	utils.SendJSONError(w, "Failed to add stock to watchlist. Please try again.", statusFor(err))
}

func (h *WatchlistHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.watchlist.Remove(r.Context(), sess, id); err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			utils.SendJSONError(w, "Watchlist item not found", status)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to remove watchlist item", "watchlistID", id, "error", err)
		utils.SendJSONError(w, "Failed to remove stock from watchlist.", status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
