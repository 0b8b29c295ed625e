package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/stockfolio/src/config"
	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/handlers"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security"
	"github.com/username/stockfolio/src/server"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/store"
	"github.com/username/stockfolio/src/store/remote"
	"github.com/username/stockfolio/src/store/sqlstore"
	"github.com/username/stockfolio/src/views"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, config.Cfg.LogFormat)
	cfg := config.Cfg

	logger.L.Info("Stockfolio server starting...", "storeDriver", cfg.StoreDriver)

	var (
		stores   store.Provider
		identity services.IdentityProvider
		external services.ExternalSignIn
	)

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			logger.L.Error("Failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := database.RunMigrations(db); err != nil {
			logger.L.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}

		st := sqlstore.New(db)
		authService := security.NewAuthService(cfg.JWTSecret, cfg.AccessTokenExpiry)
		local := services.NewLocalIdentity(db, authService, st.Portfolios(), cfg.RefreshTokenExpiry)
		stores, identity, external = st, local, local

	case config.DriverRemote:
		logger.L.Info("Using remote backend", "url", cfg.RemoteURL, "timeout", cfg.RemoteTimeout)
		client := remote.NewClient(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.RemoteTimeout)
		stores, identity = client, services.NewRemoteIdentity(client)
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		logger.L.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}

	portfolioService := services.NewPortfolioService(stores)
	watchlistService := services.NewWatchlistService(stores)
	recommender := services.NewRecommender(services.StaticSource{})
	notifier := services.NewNotifier(cfg.NoticeTTL)
	csrf := handlers.NewCSRF(cfg.CSRFAuthKey)

	authHandler := handlers.NewAuthHandler(identity, notifier, renderer, csrf, handlers.AuthOptions{
		AuthEntryPath: cfg.AuthEntryPath,
		DashboardPath: cfg.DashboardPath,
		RefreshTTL:    cfg.RefreshTokenExpiry,
		GoogleEnabled: cfg.GoogleEnabled() && external != nil,
	})

	var oauthHandler *handlers.OAuthHandler
	if cfg.GoogleEnabled() {
		if external == nil {
			logger.L.Warn("Google sign-in is configured but not supported by the store driver", "storeDriver", cfg.StoreDriver)
		} else {
			oauthConfig := handlers.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
			oauthHandler = handlers.NewOAuthHandler(oauthConfig, external, authHandler, cfg.OAuthStateString)
		}
	}

	router := server.NewRouter(server.Deps{
		Auth:  authHandler,
		OAuth: oauthHandler,
		Pages: handlers.NewPagesHandler(portfolioService, watchlistService, recommender, notifier, renderer, csrf, handlers.PageOptions{
			AuthEntryPath: cfg.AuthEntryPath,
			DashboardPath: cfg.DashboardPath,
			Currency:      cfg.Currency,
			DateLayout:    cfg.DateLayout,
		}),
		Portfolio:      handlers.NewPortfolioHandler(portfolioService, recommender),
		Watchlist:      handlers.NewWatchlistHandler(watchlistService, portfolioService),
		CSRF:           csrf,
		AuthEntryPath:  cfg.AuthEntryPath,
		DashboardPath:  cfg.DashboardPath,
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	})

	serverAddr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L.Info("Server starting", "address", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
}
