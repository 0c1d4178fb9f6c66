package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/loan-origination/internal/app"
	"github.com/segyhp/loan-origination/internal/config"
	"github.com/segyhp/loan-origination/internal/service"
	"github.com/segyhp/loan-origination/pkg/logger"
)

func main() {
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

	// In-memory storage is private to the server process, so there is nothing to sweep.
	if cfg.Storage.Driver == "memory" {
		zapLog.Fatal("Scheduler requires STORAGE_DRIVER=postgres")
	}

	deps, err := app.InitDependencies(context.Background(), cfg, zapLog)
	if err != nil {
		zapLog.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	loanService := deps.LoanService(cfg, zapLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetSchedulerLocation()))
	if err := setupCronJobs(ctx, c, cfg, loanService, zapLog); err != nil {
		zapLog.Fatal("Failed to schedule jobs", zap.Error(err))
	}

	c.Start()
	zapLog.Info("Scheduler started",
		zap.String("overdue_spec", cfg.Scheduler.OverdueSpec),
		zap.String("reminder_spec", cfg.Scheduler.ReminderSpec),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down scheduler...")
	cancel()
	<-c.Stop().Done()
	zapLog.Info("Scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, loans *service.LoanService, log *zap.Logger) error {
	// Marks past-due installments OVERDUE
	if _, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		started := time.Now()
		marked, err := loans.SweepOverdue(ctx, started)
		if err != nil {
			log.Error("Overdue sweep failed", zap.Error(err))
			return
		}
		log.Info("Overdue job completed", zap.Int("installments_marked", marked), zap.Duration("took", time.Since(started)))
	}); err != nil {
		return err
	}

	// Emails applicants whose next installment is due soon
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		started := time.Now()
		sent, err := loans.SendReminders(ctx, started)
		if err != nil {
			log.Error("Payment reminders failed", zap.Error(err))
			return
		}
		log.Info("Reminder job completed", zap.Int("reminders", sent), zap.Duration("took", time.Since(started)))
	}); err != nil {
		return err
	}

	return nil
}
