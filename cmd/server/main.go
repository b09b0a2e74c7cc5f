package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"expense-api/internal/auth"
	"expense-api/internal/charts"
	"expense-api/internal/config"
	"expense-api/internal/handlers"
	applog "expense-api/internal/log"
	"expense-api/internal/service"
	"expense-api/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	logConfig := applog.DefaultConfig()
	logConfig.Level = level
	logConfig.Format = cfg.LogFormat
	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.WithComponent(applog.ComponentStorage).Info("database ready", "driver", db.Driver())

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return err
	}

	accounts := service.NewAccounts(db, tokens, time.Now, logger)
	expenses := service.NewExpenses(db, time.Now, logger)

	if admin, ok := cfg.Admin(); ok {
		if _, err := accounts.EnsureAdmin(ctx, admin); err != nil {
			return fmt.Errorf("failed to create bootstrap account: %w", err)
		}
	}

	h := handlers.NewHandlers(accounts, expenses, charts.NewRenderer(), db)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, logger, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", applog.FieldError, err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// setupRouter builds the full HTTP handler: routes, request logging and CORS.
func setupRouter(h *handlers.Handlers, logger *applog.Logger, origins []string) http.Handler {
	r := mux.NewRouter()
	h.Routes(r)
	handler := applog.Middleware(logger)(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{applog.RequestIDHeader},
		AllowCredentials: true,
		Logger:           slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
	})
	return c.Handler(handler)
}
