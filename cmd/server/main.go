package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/expohub/expo-reservation/internal/booking"
	"github.com/expohub/expo-reservation/internal/config"
	"github.com/expohub/expo-reservation/internal/database"
	"github.com/expohub/expo-reservation/internal/handler"
	"github.com/expohub/expo-reservation/internal/middleware"
	"github.com/expohub/expo-reservation/internal/queue"
	"github.com/expohub/expo-reservation/internal/repository"
	"github.com/expohub/expo-reservation/internal/router"
	queue_publisher "github.com/expohub/expo-reservation/internal/service"
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

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	expos := repository.NewExpoRepo(db)
	booths := repository.NewBoothRepo(db)
	sessions := repository.NewSessionRepo(db)
	reservations := repository.NewReservationRepo(db)
	applications := repository.NewApplicationRepo(db)

	publisher := queue_publisher.NewPublisher("")
	bookingSvc := booking.NewService(reservations, publisher)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	expoH := handler.NewExpoHandler(expos, booths, sessions, reservations, bookingSvc)
	bookingH := handler.NewBookingHandler(bookingSvc, reservations)
	appH := handler.NewApplicationHandler(applications, expos)
	publicH := handler.NewPublicHandler(expos, booths, sessions, bookingSvc)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cache)
	router.RegisterOrganizer(e, expoH, appH, cfg.JWTSecret)
	router.RegisterBooking(e, bookingH, appH, cfg.JWTSecret, limiter)

	// The consumer keeps its own reconnect loop alive for the life of
	// the process.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
