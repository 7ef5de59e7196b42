package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/piataonline/market-api/internal/auth"
	"github.com/piataonline/market-api/internal/config"
	"github.com/piataonline/market-api/internal/database"
	"github.com/piataonline/market-api/internal/handler"
	"github.com/piataonline/market-api/internal/queue"
	"github.com/piataonline/market-api/internal/repository"
	"github.com/piataonline/market-api/internal/router"
	"github.com/piataonline/market-api/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	stalls := repository.NewStallRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	reviews := repository.NewReviewRepo(db)
	messages := repository.NewMessageRepo(db)

	// Identity verification is delegated to the providers.
	verifier := &auth.MultiVerifier{
		Google:   &auth.GoogleVerifier{ClientID: cfg.GoogleClientID},
		Facebook: &auth.FacebookVerifier{},
	}
	sessions := service.NewSessionService(verifier, users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(sessions, users),
		Stalls:   handler.NewStallHandler(stalls, products, users),
		Products: handler.NewProductHandler(products, stalls),
		Orders:   handler.NewOrderHandler(orders, products, stalls),
		Reviews:  handler.NewReviewHandler(reviews, stalls),
		Messages: handler.NewMessageHandler(messages, stalls),
		Admin:    handler.NewAdminHandler(users, orders),
	}

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, h, cfg, rdb)

	// Consume order events in the background; the consumer runs its
	// own reconnect loop and never brings the server down.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
