package app

import (
	"context"
	"fmt"

	authsvc "foodshare-backend/internal/application/auth"
	emailsvc "foodshare-backend/internal/application/emails"
	healthsvc "foodshare-backend/internal/application/health"
	"foodshare-backend/internal/application/lifecycle"
	profilesvc "foodshare-backend/internal/application/profiles"
	"foodshare-backend/internal/config"
	"foodshare-backend/internal/domain"
	"foodshare-backend/internal/infrastructure/database"
	"foodshare-backend/internal/infrastructure/mq"
	"foodshare-backend/internal/infrastructure/store/gormstore"
	"foodshare-backend/internal/infrastructure/store/sqlstore"
	"foodshare-backend/internal/interfaces/router"
	"foodshare-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store is everything the services need from the selected backend.
type Store interface {
	lifecycle.Store
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p domain.ProfileUpdate) error
	Ping(ctx context.Context) error
}

// App is the assembled process: HTTP app plus the long-lived clients it owns.
type App struct {
	Fiber  *fiber.App
	Rdb    *redis.Client
	Auth   *authsvc.Service
	Engine *lifecycle.Engine

	closers []func() error
}

// OpenStore opens the backend named by cfg.StoreDriver.
func OpenStore(cfg *config.Config) (Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		st, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, st.Close, nil
	default:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return gormstore.New(db), sqlDB.Close, nil
	}
}

// New builds the application from config: store, Redis, publishers, services and routes.
func New(cfg *config.Config) (*App, error) {
	st, closeStore, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{closers: []func() error{closeStore}}

	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("redis url: %w", err)
	}
	a.Rdb = rdb
	a.closers = append(a.closers, rdb.Close)

	var publishers lifecycle.Publishers
	optional := map[string]healthsvc.Pinger{}
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		publishers = append(publishers, pub)
		optional["rabbitmq"] = pub
		a.closers = append(a.closers, pub.Close)
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("lifecycle events published to rabbitmq")
	}
	if cfg.SendinblueAPIKey != "" {
		publishers = append(publishers, &emailsvc.Notifier{
			Users:  st,
			Sender: &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
		})
	}

	var publisher lifecycle.Publisher
	if len(publishers) > 0 {
		publisher = publishers
	}
	a.Engine = lifecycle.NewEngine(st, cfg.Policy, publisher)
	a.Auth = &authsvc.Service{Users: st, Rdb: rdb}

	a.Fiber = router.New(router.Options{
		Session: middleware.SessionConfig{
			Secret:            cfg.SessionSecret,
			AllowCrossSiteDev: cfg.AllowCrossSiteDev,
			IsProduction:      cfg.IsProduction(),
			CookieDomain:      cfg.CookieDomain,
		},
		FrontendURLEndsWith: cfg.FrontendURLEndsWith,
		DevPassword:         cfg.DevPassword,
		HealthAdminKey:      cfg.HealthAdminKey,
	}, router.Deps{
		Engine:   a.Engine,
		Auth:     a.Auth,
		Profiles: &profilesvc.Service{Store: st},
		Rdb:      rdb,
		DB:       st,
		Optional: optional,
	})
	return a, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
