package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stride-dev/stride/db"
	"github.com/stride-dev/stride/internal/auth"
	"github.com/stride-dev/stride/internal/config"
	"github.com/stride-dev/stride/internal/genai"
	"github.com/stride-dev/stride/internal/handlers"
	"github.com/stride-dev/stride/internal/router"
	"github.com/stride-dev/stride/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := auth.Init(cfg.JWTSecret); err != nil {
		log.Fatalf("Error initializing auth: %v", err)
	}

	conn, err := db.Connect(cfg.DatabaseDSN)

	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	users := store.NewUserStore(conn)
	goals := store.NewGoalStore(conn)
	decomposer := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	r := router.New(
		&handlers.AuthHandler{Users: users, Domain: cfg.Domain},
		&handlers.GoalHandler{Goals: goals, Decomposer: decomposer},
		users,
		cfg.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	if err := db.Close(conn); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
