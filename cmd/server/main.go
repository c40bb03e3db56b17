package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/airline-reservation/internal/config"
	"github.com/iliyamo/airline-reservation/internal/database"
	"github.com/iliyamo/airline-reservation/internal/handler"
	"github.com/iliyamo/airline-reservation/internal/logger"
	"github.com/iliyamo/airline-reservation/internal/queue"
	"github.com/iliyamo/airline-reservation/internal/repository"
	"github.com/iliyamo/airline-reservation/internal/router"
	"github.com/iliyamo/airline-reservation/internal/service"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("connect database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Error("migrate database", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher = queue.NopPublisher{}
	if qcfg.Enabled {
		pub, err := queue.NewPublisher(qcfg.URL, qcfg.Exchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, domain events disabled", "err", err)
		} else {
			defer pub.Close()
			events = pub
		}
		if qcfg.ConsumerEnabled {
			go func() {
				if err := queue.StartAuditConsumer(ctx, qcfg, log); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", "err", err)
				}
			}()
		}
	}

	store := repository.NewStore(db, repository.MySQL)
	flights := service.NewFlightService(store, service.SixAbreastLabeler{}, events, log, cfg.SeatPriceCents)
	reservations := service.NewReservationService(store, events, log)
	reference := service.NewReferenceService(store)
	stats := service.NewStatsService(store)
	auth := service.NewAuthService(store.Users, store.Tokens, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})

	e := router.New(router.Deps{
		Log:            log,
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
		Redis:          rdb,
		RateLimit:      config.LoadRateLimitConfig(),
		Cache:          config.LoadCacheConfig(),
		DB:             db,
		Auth:           handler.NewAuthHandler(auth),
		Flights:        handler.NewFlightHandler(flights),
		Reservations:   handler.NewReservationHandler(reservations),
		Reference:      handler.NewReferenceHandler(reference),
		Stats:          handler.NewStatsHandler(stats),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	log.Info("stopped")
}
