// Package app assembles the backends shared by the server and scheduler binaries.
package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/loan-origination/internal/cache"
	"github.com/segyhp/loan-origination/internal/config"
	"github.com/segyhp/loan-origination/internal/lock"
	"github.com/segyhp/loan-origination/internal/notification"
	"github.com/segyhp/loan-origination/internal/repository"
	"github.com/segyhp/loan-origination/internal/service"
)

// Dependencies are the storage, cache and lock backends chosen by configuration.
// DB and Redis are nil when the corresponding backend is not in use.
type Dependencies struct {
	DB         *sqlx.DB
	Redis      *redis.Client
	Loans      repository.LoanRepository
	Payments   repository.PaymentRepository
	Applicants repository.ApplicantRepository
	Cache      cache.LoanCache
	Locker     lock.Locker
}

func InitDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("Using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		deps.Loans, deps.Payments, deps.Applicants = store.Loans(), store.Payments(), store.Applicants()
	default:
		db, err := initDB(cfg)
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.Loans = repository.NewLoanRepository(db)
		deps.Payments = repository.NewPaymentRepository(db)
		deps.Applicants = repository.NewApplicantRepository(db)
	}

	if !cfg.Redis.Enabled() {
		log.Warn("Redis not configured, using process-local locks and no loan cache")
		deps.Cache = cache.Noop{}
		deps.Locker = lock.NewLocalLocker()
		return deps, nil
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Redis = redisClient
	deps.Cache = cache.NewRedisLoanCache(redisClient, cfg.Business.CacheTTL)
	deps.Locker = lock.NewRedisLocker(redisClient)
	return deps, nil
}

// LoanService builds the workflow service on top of the dependencies.
func (d *Dependencies) LoanService(cfg *config.Config, log *zap.Logger) *service.LoanService {
	return service.NewLoanService(
		d.Loans, d.Payments, d.Applicants,
		d.Cache, d.Locker,
		notification.New(cfg.SMTP, log),
		cfg, log,
	)
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}
