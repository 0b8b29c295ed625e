package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/store"
	"github.com/username/stockfolio/src/utils"
)

// PortfolioHandler serves the dashboard, investment and recommendation API.
type PortfolioHandler struct {
	portfolios  *services.PortfolioService
	recommender *services.Recommender
}

func NewPortfolioHandler(portfolios *services.PortfolioService, recommender *services.Recommender) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, recommender: recommender}
}

// statusFor maps service errors to HTTP status codes. Messages stay generic.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrValidationFailed), errors.Is(err, services.ErrConfirmationMismatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrNoPortfolio):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *PortfolioHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	dash, err := h.portfolios.LoadDashboard(r.Context(), sess)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load dashboard", "error", err)
		utils.SendJSONError(w, "Failed to fetch portfolio data", statusFor(err))
		return
	}
	utils.WriteJSON(w, http.StatusOK, dash)
}

func (h *PortfolioHandler) HandleAddInvestment(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	sess, _ := SessionFromContext(r.Context())

	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	form, err := services.ParseNewInvestmentForm(values)
	if err != nil {
		sendValidationError(w, err)
		return
	}

	res, err := h.portfolios.AddInvestment(r.Context(), sess, form)
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusCreated, res)
	case errors.Is(err, services.ErrNoPortfolio):
		utils.SendJSONError(w, "No portfolio found", http.StatusNotFound)
	case errors.Is(err, services.ErrPartialWrite):
		ctxLogger.Error("Investment stored without its transaction", "error", err)
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      "Investment was saved but its transaction could not be recorded",
			"investment": res.Investment,
		})
	default:
		ctxLogger.Error("Failed to add investment", "error", err)
		utils.SendJSONError(w, "Failed to add investment. Please try again.", http.StatusInternalServerError)
	}
}

func (h *PortfolioHandler) HandleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	values, err := requestValues(r)
	if err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	form, err := services.ParseEditInvestmentForm(values)
	if err != nil {
		sendValidationError(w, err)
		return
	}

	inv, err := h.portfolios.UpdateInvestment(r.Context(), sess, id, form)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			utils.SendJSONError(w, "Investment not found", status)
			return
		}
		logger.FromContext(r.Context()).Error("Failed to update investment", "investmentID", id, "error", err)
		utils.SendJSONError(w, "Failed to update investment", status)
		return
	}
	utils.WriteJSON(w, http.StatusOK, inv)
}

// HandleDeleteInvestment requires ?confirm=<SYMBOL> naming the holding.
func (h *PortfolioHandler) HandleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	inv, err := h.portfolios.DeleteInvestment(r.Context(), sess, id, r.URL.Query().Get("confirm"))
	switch {
	case err == nil:
		utils.WriteJSON(w, http.StatusOK, map[string]any{"deleted": inv})
	case errors.Is(err, services.ErrConfirmationMismatch):
		utils.SendJSONError(w, "Confirm the deletion by passing the investment symbol", http.StatusBadRequest)
	case statusFor(err) == http.StatusNotFound:
		utils.SendJSONError(w, "Investment not found", http.StatusNotFound)
	default:
		logger.FromContext(r.Context()).Error("Failed to delete investment", "investmentID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete investment", http.StatusInternalServerError)
	}
}

func (h *PortfolioHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	holdings, err := h.portfolios.Holdings(r.Context(), sess)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load holdings for recommendations", "error", err)
		utils.SendJSONError(w, "Failed to fetch portfolio data", http.StatusInternalServerError)
		return
	}
	res, err := h.recommender.Recommend(r.Context(), holdings)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to generate recommendations", "error", err)
		utils.SendJSONError(w, "Failed to load recommendations", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
