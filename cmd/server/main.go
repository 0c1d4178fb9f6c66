package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/segyhp/loan-origination/internal/app"
	"github.com/segyhp/loan-origination/internal/auth"
	"github.com/segyhp/loan-origination/internal/config"
	"github.com/segyhp/loan-origination/internal/handler"
	"github.com/segyhp/loan-origination/pkg/logger"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLog.Sync()
	zap.ReplaceGlobals(zapLog)

	deps, err := app.InitDependencies(context.Background(), cfg, zapLog)
	if err != nil {
		zapLog.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	loanHandler := handler.NewLoanHandler(deps.LoanService(cfg, zapLog))
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Redis, cfg.Health.Timeout)
	authenticator := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Setup routes
	router := handler.NewRouter(loanHandler, healthHandler, authenticator, zapLog)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		zapLog.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLog.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	zapLog.Info("Server exited")
}
