package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/config"
	"github.com/skywatch/telescope-reservation/internal/database"
	"github.com/skywatch/telescope-reservation/internal/engine"
	"github.com/skywatch/telescope-reservation/internal/handler"
	"github.com/skywatch/telescope-reservation/internal/middleware"
	"github.com/skywatch/telescope-reservation/internal/queue"
	"github.com/skywatch/telescope-reservation/internal/repository"
	"github.com/skywatch/telescope-reservation/internal/router"
	queuepublisher "github.com/skywatch/telescope-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	telescopes := repository.NewTelescopeRepo(db)
	bodies := repository.NewCelestialBodyRepo(db)
	reservations := repository.NewReservationRepo(db)

	eng := engine.New(reservations, users, telescopes, bodies, queuepublisher.NewAuditSink())

	e := echo.New()
	e.Validator = handler.NewValidator()

	// Redis-backed rate limiting applies globally; the response cache only
	// wraps the public browse routes.  A nil client degrades both to
	// pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterReservations(e, handler.NewReservationHandler(eng, reservations), cfg.JWTSecret)
	router.RegisterPublic(e, &handler.PublicHandler{
		Telescopes:   telescopes,
		Bodies:       bodies,
		Reservations: reservations,
	}, cacheMW)

	// Audit consumer tails reservation.audit and keeps its own reconnect
	// loop; it never takes the API down.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
