package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fitforxe/gym-backend/internal/config"
	"github.com/fitforxe/gym-backend/internal/database"
	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/handler"
	"github.com/fitforxe/gym-backend/internal/jobs"
	"github.com/fitforxe/gym-backend/internal/logger"
	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/queue"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/router"
	"github.com/fitforxe/gym-backend/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		logger.Init("dev", "info")
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(cfg.MigrateURL(), "up"); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		log.Info().Msg("migrations applied")
	}
	db, err := database.Open(ctx, cfg.DSN(), database.Pool{
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	owners := repository.NewOwnerRepo(db)
	profiles := repository.NewProfileRepo(db)
	members := repository.NewMemberRepo(db)
	payments := repository.NewPaymentRepo(db)
	visits := repository.NewAttendanceRepo(db)
	dashboard := repository.NewDashboardRepo(db)
	txs := repository.NewTransactionRepo(db)

	// Redis carries the auth rate limit when reachable.  Revocations live in
	// the store REVOCATION_STORE names; a configured Redis that can not be
	// reached stops startup instead of falling back.
	var (
		revocations service.RevocationStore
		limiterRDB  redis.Scripter
	)
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		if cfg.RevocationStore == config.RevocationRedis {
			log.Fatal().Err(err).Msg("redis revocation store unreachable")
		}
		log.Warn().Err(err).Msg("redis unavailable; rate limiting off")
	}
	if rdb != nil {
		defer rdb.Close()
		limiterRDB = rdb
		log.Info().Msg("redis connected")
	}
	switch cfg.RevocationStore {
	case config.RevocationRedis:
		if rdb == nil {
			log.Fatal().Msg("REVOCATION_STORE=redis but REDIS_DISABLED is set")
		}
		revocations = repository.NewRedisRevocations(rdb, "revoked")
	default:
		sqlRevocations := repository.NewRevokedTokenRepo(db)
		revocations = sqlRevocations
		jobs.StartRevocationPurgeJob(ctx, sqlRevocations, cfg.PurgeInterval)
	}
	log.Info().Str("store", cfg.RevocationStore).Msg("session revocations")

	creds, err := service.NewCredentials(owners, profiles, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("credentials")
	}
	tokens := service.NewTokens(cfg.JWTSecret, cfg.AccessTTL(), cfg.SessionMaxAge, owners, revocations)
	resets := service.NewPasswordReset(service.ResetConfig{
		Secret:      cfg.JWTSecret,
		TTL:         cfg.ResetTTL(),
		FrontendURL: cfg.FrontendURL,
		ShowURL:     cfg.ShowResetURL,
		BcryptCost:  cfg.BcryptCost,
	}, owners, repository.NewResetRepo(db))

	card := gateway.NewStripe(cfg.Stripe)
	orders := gateway.NewRazorpay(cfg.Razorpay)
	settler := service.NewSettler(txs)

	var dispatch service.SettlementDispatcher = service.InlineDispatcher{Settler: settler}
	if cfg.RabbitURL != "" {
		dispatch = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartSettlementConsumer(ctx, cfg.RabbitURL, settler); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("settlement consumer stopped")
			}
		}()
		log.Info().Str("queue", queue.SettlementQueue).Msg("settlements go through the broker")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e, router.Deps{
		Auth:       handler.NewAuthHandler(creds, tokens, resets),
		Members:    handler.NewMemberHandler(members),
		Payments:   handler.NewPaymentHandler(payments),
		Attendance: handler.NewAttendanceHandler(visits),
		Dashboard:  handler.NewDashboardHandler(dashboard),
		Profile:    handler.NewProfileHandler(profiles),
		Checkout:   handler.NewCheckoutHandler(service.NewCheckout(members, txs, card, orders, settler)),
		Webhooks:   handler.NewWebhookHandler(service.NewWebhooks(card, orders, txs, dispatch)),
		Tokens:     tokens,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), limiterRDB),
		DB:         db,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
