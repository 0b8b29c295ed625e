// Package server assembles the HTTP router.
package server

import (
	"crypto/tls"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/username/stockfolio/src/handlers"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/utils"
)

// Deps are the handlers and policies the router is built from. OAuth is nil
// when Google sign-in is not configured.
type Deps struct {
	Auth      *handlers.AuthHandler
	OAuth     *handlers.OAuthHandler
	Pages     *handlers.PagesHandler
	Portfolio *handlers.PortfolioHandler
	Watchlist *handlers.WatchlistHandler
	CSRF      *handlers.CSRF

	AuthEntryPath  string
	DashboardPath  string
	AllowedOrigins []string
	Limiter        *rate.Limiter
}

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(origins []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[strings.TrimRight(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, X-CSRF-Token, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, X-Request-ID")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter wires the page routes, the JSON API and the health check.
func NewRouter(d Deps) http.Handler {
	if d.AuthEntryPath == "" {
		d.AuthEntryPath = "/auth"
	}
	if d.DashboardPath == "" {
		d.DashboardPath = "/dashboard"
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS(d.AllowedOrigins))
	r.Use(rateLimitMiddleware(d.Limiter))
	r.Use(d.Auth.SessionMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Pages
	r.Get("/", d.Auth.Landing)
	r.Route(d.AuthEntryPath, func(r chi.Router) {
		r.Get("/", d.Auth.AuthPage)
		if d.OAuth != nil {
			r.Get("/google/login", d.OAuth.HandleGoogleLogin)
			r.Get("/google/callback", d.OAuth.HandleGoogleCallback)
		}
		r.Group(func(r chi.Router) {
			r.Use(d.CSRF.Middleware)
			r.Post("/sign-in", d.Auth.SignInPage)
			r.Post("/sign-up", d.Auth.SignUpPage)
			r.Post("/sign-out", d.Auth.SignOutPage)
		})
	})
	r.Route(d.DashboardPath, func(r chi.Router) {
		r.Use(d.Auth.RequirePageSession)
		r.Get("/", d.Pages.Dashboard)
		r.Group(func(r chi.Router) {
			r.Use(d.CSRF.Middleware)
			r.Post("/investments", d.Pages.AddInvestment)
			r.Post("/investments/{id}/edit", d.Pages.UpdateInvestment)
			r.Post("/investments/{id}/delete", d.Pages.DeleteInvestment)
			r.Post("/watchlist", d.Pages.AddToWatchlist)
			r.Post("/watchlist/{id}/delete", d.Pages.RemoveFromWatchlist)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/csrf", d.CSRF.GetCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(d.CSRF.Middleware)
			r.Post("/auth/sign-up", d.Auth.SignUpAPI)
			r.Post("/auth/sign-in", d.Auth.SignInAPI)
			r.Post("/auth/refresh", d.Auth.RefreshAPI)
			r.With(handlers.RequireAPISession).Post("/auth/sign-out", d.Auth.SignOutAPI)
		})

		r.Group(func(r chi.Router) {
			r.Use(handlers.RequireAPISession)
			r.Use(d.CSRF.Middleware)

			r.Get("/auth/me", d.Auth.MeAPI)
			r.Get("/dashboard", d.Portfolio.HandleGetDashboard)
			r.Post("/investments", d.Portfolio.HandleAddInvestment)
			r.Patch("/investments/{id}", d.Portfolio.HandleUpdateInvestment)
			r.Delete("/investments/{id}", d.Portfolio.HandleDeleteInvestment)
			r.Get("/recommendations", d.Portfolio.HandleGetRecommendations)
			r.Get("/watchlist", d.Watchlist.HandleList)
			r.Post("/watchlist", d.Watchlist.HandleAdd)
			r.Delete("/watchlist/{id}", d.Watchlist.HandleRemove)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			utils.SendJSONError(w, "Not found", http.StatusNotFound)
		})
	})

	return r
}
