package container

import (
	"time"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/config"
	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	store       repository.Store
	redisClient *redis.Client
	gcsClient   *storage.Client
	clock       func() time.Time

	notifier application.LoanNotifier
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetStore(s repository.Store)   { store = s }
func GetStore() repository.Store    { return store }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetClock(now func() time.Time) { clock = now }

// GetClock defaults to time.Now.
func GetClock() func() time.Time {
	if clock != nil {
		return clock
	}
	return time.Now
}

func SetNotifier(n application.LoanNotifier) { notifier = n }

// GetNotifier falls back to a no-op when loan notifications are disabled.
func GetNotifier() application.LoanNotifier {
	if notifier != nil {
		return notifier
	}
	return application.NopNotifier{}
}
