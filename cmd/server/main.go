package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/config"
	"github.com/iliyamo/library-circulation/internal/database"
	"github.com/iliyamo/library-circulation/internal/handler"
	"github.com/iliyamo/library-circulation/internal/middleware"
	"github.com/iliyamo/library-circulation/internal/policy"
	"github.com/iliyamo/library-circulation/internal/queue"
	"github.com/iliyamo/library-circulation/internal/repository"
	"github.com/iliyamo/library-circulation/internal/router"
	queuepub "github.com/iliyamo/library-circulation/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Setup(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema setup: %v", err)
	}
	cancel()

	// Redis is optional: with no client, caching and rate limiting
	// degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	books := repository.NewBookRepo(db)
	copies := repository.NewCopyRepo(db)
	loans := repository.NewLoanRepo(db)
	holds := repository.NewHoldRepo(db)
	fines := repository.NewFineRepo(db)
	members := repository.NewMemberRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(cfg, members, tokens)
	catalogH := handler.NewCatalogHandler(books, copies)
	circH := &handler.CirculationHandler{
		Cfg:              cfg,
		Books:            books,
		Copies:           copies,
		Loans:            loans,
		Holds:            holds,
		Fines:            fines,
		Members:          members,
		Overdue:          policy.PerDay(cfg.FinePerDayCents),
		PublishHoldReady: queuepub.PublishHoldReady,
	}
	holdH := handler.NewHoldHandler(books, holds)
	fineH := handler.NewFineHandler(fines, members)
	memberH := handler.NewMemberHandler(members, tokens)
	reportH := handler.NewReportHandler(books, members, loans, holds, fines)

	e := echo.New()
	e.HideBanner = true

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterCatalog(e, catalogH, cache)
	router.RegisterCirculation(e, circH, holdH, fineH, memberH, reportH, cfg.JWTSecret)

	// Background consumer: turns hold.ready events into notification
	// log entries.  Runs its own reconnect loop.
	go func() {
		if err := queue.StartHoldNotifier(); err != nil {
			log.Printf("hold notifier stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
