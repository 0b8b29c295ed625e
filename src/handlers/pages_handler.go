package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/views"
)

const (
	noticeCookie = "notice_id"
	tzCookie     = "tz"
)

// noticeKey identifies the browser for one-shot notices, issuing a cookie on
// first use.
func noticeKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(noticeCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name: noticeCookie, Value: key, Path: "/",
		HttpOnly: true, Secure: r.TLS != nil, SameSite: http.SameSiteLaxMode,
	})
	return key
}

// PageOptions configures the dashboard pages.
type PageOptions struct {
	AuthEntryPath string
	DashboardPath string
	Currency      string
	DateLayout    string
}

// PagesHandler serves the dashboard and its form posts. Every post answers
// with a 303 back to the dashboard, except a rejected or failed add form,
// which re-renders with the submitted values.
type PagesHandler struct {
	portfolios  *services.PortfolioService
	watchlist   *services.WatchlistService
	recommender *services.Recommender
	notifier    *services.Notifier
	views       *views.Renderer
	csrf        *CSRF
	opts        PageOptions
}

func NewPagesHandler(
	portfolios *services.PortfolioService,
	watchlist *services.WatchlistService,
	recommender *services.Recommender,
	notifier *services.Notifier,
	renderer *views.Renderer,
	csrf *CSRF,
	opts PageOptions,
) *PagesHandler {
	if opts.DashboardPath == "" {
		opts.DashboardPath = "/dashboard"
	}
	if opts.AuthEntryPath == "" {
		opts.AuthEntryPath = "/auth"
	}
	return &PagesHandler{
		portfolios:  portfolios,
		watchlist:   watchlist,
		recommender: recommender,
		notifier:    notifier,
		views:       renderer,
		csrf:        csrf,
		opts:        opts,
	}
}

// formatter renders dates in the browser's zone. A ?tz= query parameter is
// remembered in a cookie.
func (h *PagesHandler) formatter(w http.ResponseWriter, r *http.Request) views.Formatter {
	name := r.URL.Query().Get("tz")
	if name != "" {
		if _, err := time.LoadLocation(name); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name: tzCookie, Value: name, Path: "/",
				SameSite: http.SameSiteLaxMode, MaxAge: int((365 * 24 * time.Hour).Seconds()),
			})
		}
	} else if c, err := r.Cookie(tzCookie); err == nil {
		name = c.Value
	}
	return views.NewFormatter(h.opts.Currency, h.opts.DateLayout, views.ResolveLocation(name))
}

func (h *PagesHandler) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.opts.DashboardPath, http.StatusSeeOther)
}

// Dashboard renders the signed-in user's dashboard.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, nil)
}

// renderDashboard loads all sections. A failing section degrades to its empty
// state with a notice instead of failing the page. adjust lets a rejected form
// post carry its values and field errors into the page.
func (h *PagesHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, adjust func(*views.DashboardPage)) {
	ctx := r.Context()
	ctxLogger := logger.FromContext(ctx)
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	notices := h.notifier.Pop(key)

	var in views.DashboardInput
	dash, err := h.portfolios.LoadDashboard(ctx, sess)
	if err != nil {
		ctxLogger.Error("Failed to load dashboard", "error", err)
		notices = append(notices, services.Notice{Level: services.NoticeError, Title: "Error", Message: "Failed to fetch portfolio data"})
	} else {
		in.Dashboard = *dash
	}

	if p := in.Dashboard.Portfolio; p != nil {
		if in.Watchlist, err = h.watchlist.List(ctx, sess, p.ID); err != nil {
			ctxLogger.Error("Failed to load watchlist", "error", err)
			in.WatchlistFailed = true
			notices = append(notices, services.Notice{Level: services.NoticeError, Title: "Error", Message: "Failed to load watchlist items."})
		}
	}

	if dash != nil {
		if in.Recommendations, err = h.recommender.Recommend(ctx, in.Dashboard.Investments); err != nil {
			ctxLogger.Error("Failed to generate recommendations", "error", err)
		}
	}

	base := views.Base{
		CSRFToken:     h.csrf.Token(w, r),
		Notices:       notices,
		AuthPath:      h.opts.AuthEntryPath,
		DashboardPath: h.opts.DashboardPath,
	}
	if sess != nil {
		base.Email = sess.Email
	}
	page := views.NewDashboardPage(base, in, h.formatter(w, r))
	if adjust != nil {
		adjust(&page)
	}

	if err := h.views.Render(w, status, views.PageDashboard, page); err != nil {
		ctxLogger.Error("Failed to render dashboard", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// keepForm re-renders the dashboard with the posted values back in the form
// that failed.
func (h *PagesHandler) keepForm(w http.ResponseWriter, r *http.Request, status int, err error, notice services.Notice, set func(*views.DashboardPage, views.FormState)) {
	state := views.FormState{Values: r.PostForm, Fields: services.FieldErrorsOf(err)}
	h.renderDashboard(w, r, status, func(p *views.DashboardPage) {
		set(p, state)
		p.Notices = append(p.Notices, notice)
	})
}

func (h *PagesHandler) rejectForm(w http.ResponseWriter, r *http.Request, err error, set func(*views.DashboardPage, views.FormState)) {
	h.keepForm(w, r, http.StatusBadRequest, err, services.Notice{Level: services.NoticeError, Title: "Invalid input", Message: "Please correct the highlighted fields."}, set)
}

func setAddInvestment(p *views.DashboardPage, s views.FormState) { p.AddInvestment = s }
func setAddWatchlist(p *views.DashboardPage, s views.FormState)  { p.AddWatchlist = s }

func (h *PagesHandler) AddInvestment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	if err := r.ParseForm(); err != nil {
		h.notifier.Error(key, "Error", "Invalid form submission")
		h.redirect(w, r)
		return
	}

	form, err := services.ParseNewInvestmentForm(r.PostForm)
	if err != nil {
		h.rejectForm(w, r, err, setAddInvestment)
		return
	}

	_, err = h.portfolios.AddInvestment(ctx, sess, form)
	switch {
	case err == nil:
		h.notifier.Success(key, "Investment Added",
			fmt.Sprintf("Successfully added %s shares of %s", views.Formatter{}.Quantity(form.Quantity), form.Symbol))
	case errors.Is(err, services.ErrNoPortfolio):
		logger.FromContext(ctx).Warn("Add investment without a portfolio")
	case errors.Is(err, services.ErrPartialWrite):
		logger.FromContext(ctx).Error("Investment stored without its transaction", "symbol", form.Symbol, "error", err)
		h.notifier.Error(key, "Partially saved",
			fmt.Sprintf("%s was added but its purchase could not be recorded in the transaction history.", form.Symbol))
	default:
		logger.FromContext(ctx).Error("Failed to add investment", "symbol", form.Symbol, "error", err)
		h.keepForm(w, r, http.StatusInternalServerError, nil,
			services.Notice{Level: services.NoticeError, Title: "Error", Message: "Failed to add investment. Please try again."}, setAddInvestment)
		return
	}
	h.redirect(w, r)
}

func (h *PagesHandler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		h.notifier.Error(key, "Error", "Invalid form submission")
		h.redirect(w, r)
		return
	}
	form, err := services.ParseEditInvestmentForm(r.PostForm)
	if err != nil {
		h.notifier.Error(key, "Invalid input", firstFieldError(err))
		h.redirect(w, r)
		return
	}

	inv, err := h.portfolios.UpdateInvestment(ctx, sess, id, form)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update investment", "investmentID", id, "error", err)
		h.notifier.Error(key, "Error", "Failed to update investment")
		h.redirect(w, r)
		return
	}
	h.notifier.Success(key, "Investment Updated", fmt.Sprintf("Updated %s successfully", inv.Symbol))
	h.redirect(w, r)
}

func (h *PagesHandler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	id := chi.URLParam(r, "id")

	inv, err := h.portfolios.DeleteInvestment(ctx, sess, id, r.PostFormValue("confirm"))
	switch {
	case err == nil:
		h.notifier.Success(key, "Investment Deleted", fmt.Sprintf("Removed %s from portfolio", inv.Symbol))
	case errors.Is(err, services.ErrConfirmationMismatch):
		h.notifier.Error(key, "Not deleted", "Type the investment symbol to confirm the deletion.")
	default:
		logger.FromContext(ctx).Error("Failed to delete investment", "investmentID", id, "error", err)
		h.notifier.Error(key, "Error", "Failed to delete investment")
	}
	h.redirect(w, r)
}

func (h *PagesHandler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	if err := r.ParseForm(); err != nil {
		h.notifier.Error(key, "Error", "Invalid form submission")
		h.redirect(w, r)
		return
	}

	form, err := services.ParseWatchlistForm(r.PostForm)
	if err != nil {
		h.rejectForm(w, r, err, setAddWatchlist)
		return
	}

	pf, err := h.portfolios.Portfolio(ctx, sess)
	if err == nil {
		_, err = h.watchlist.Add(ctx, sess, pf.ID, form)
	}
	switch {
	case err == nil:
		h.notifier.Success(key, "Stock added to watchlist", fmt.Sprintf("%s has been added to your watchlist.", form.Symbol))
	case errors.Is(err, services.ErrNoPortfolio):
		logger.FromContext(ctx).Warn("Watchlist add without a portfolio")
	default:
		logger.FromContext(ctx).Error("Failed to add watchlist item", "symbol", form.Symbol, "error", err)
		h.keepForm(w, r, http.StatusInternalServerError, nil,
			services.Notice{Level: services.NoticeError, Title: "Error", Message: "Failed to add stock to watchlist. Please try again."}, setAddWatchlist)
		return
	}
	h.redirect(w, r)
}

func (h *PagesHandler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := SessionFromContext(ctx)
	key := noticeKey(w, r)
	id := chi.URLParam(r, "id")
	symbol := r.PostFormValue("symbol")

	if err := h.watchlist.Remove(ctx, sess, id); err != nil {
		logger.FromContext(ctx).Error("Failed to remove watchlist item", "watchlistID", id, "error", err)
		h.notifier.Error(key, "Error", "Failed to remove stock from watchlist.")
		h.redirect(w, r)
		return
	}
	h.notifier.Success(key, "Removed from watchlist", fmt.Sprintf("%s has been removed from your watchlist.", symbol))
	h.redirect(w, r)
}

func firstFieldError(err error) string {
	for _, field := range []string{"quantity", "current_price"} {
		if msg, ok := services.FieldErrorsOf(err)[field]; ok {
			return msg
		}
	}
	return err.Error()
}

