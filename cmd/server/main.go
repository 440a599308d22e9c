package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordwarrior/internal/config"
	"wordwarrior/internal/database"
	"wordwarrior/internal/handlers"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/questions"
	"wordwarrior/internal/scheduler"
	"wordwarrior/internal/security"
	"wordwarrior/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Room notifications: Redis when configured so every instance sees every room
	broker, closeBroker := newBroker(cfg)
	defer closeBroker()

	bank, err := questions.DefaultWordBank()
	if err != nil {
		log.Fatalf("Failed to load word bank: %v", err)
	}

	// Initialize services
	progressionService := service.NewProgressionService(db)
	matchmakingService := service.NewMatchmakingService(db, broker, bank, cfg.QuestionsPerBattle)
	battleService := service.NewBattleService(db, broker, progressionService, cfg.AnswerWindow, cfg.RoundGrace)

	// Start background backstops
	sched, err := scheduler.New(battleService, matchmakingService, cfg.SweepInterval, cfg.QueueTTL)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()

	// Initialize handlers
	limiter := security.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)
	defer limiter.Close()
	middleware := handlers.NewMiddleware(security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration), limiter)

	// Setup routes
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux,
		middleware,
		handlers.NewQueueHandler(matchmakingService, progressionService),
		handlers.NewBattleHandler(battleService),
		handlers.NewProgressionHandler(progressionService),
		handlers.NewPushHandler(broker, battleService),
	)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket streams outlive any request deadline
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("Error stopping scheduler: %v", err)
	}
}

// newBroker returns the notification broker and a func that closes it,
// ending every open subscription
func newBroker(cfg *config.Config) (notify.Broker, func()) {
	if cfg.RedisAddr == "" {
		hub := notify.NewHub()
		return hub, hub.Close
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := notify.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	broker, err := notify.NewRedisBroker(context.Background(), client, notify.DefaultChannel)
	if err != nil {
		log.Fatalf("Failed to subscribe to Redis: %v", err)
	}
	return broker, func() {
		if err := broker.Close(); err != nil {
			log.Printf("Error closing Redis broker: %v", err)
		}
		client.Close()
	}
}
