package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"clickchess/internal/auth"
	"clickchess/internal/config"
	"clickchess/internal/db"
	"clickchess/internal/handlers"
	"clickchess/internal/middleware"
)

func main() {
	// Load configuration
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting clickchess server in %s mode", cfg.Environment)

	// Connect to MongoDB (optional; the server plays fine without it)
	mongodb, err := db.NewMongoDB(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongodb.Close(ctx)
	}()

	if mongodb.Enabled() {
		log.Printf("Connected to MongoDB database: %s", cfg.MongoDB.Database)
	}

	// Initialize auth services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Hour)
	passwordService := auth.NewPasswordService()

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, mongodb)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Create handlers
	wsHandler := handlers.NewWebSocketHandler()
	gameHandler := handlers.NewGameHandler(mongodb, wsHandler, cfg.Engine.Depth)
	gameHandler.SetDefaultColor(cfg.Engine.HumanColor)
	wsHandler.SetInputSink(gameHandler)
	authHandler := handlers.NewAuthHandler(mongodb, jwtService, passwordService)

	// Set up router
	router := mux.NewRouter()
	router.Use(middleware.SecurityHeaders)

	// WebSocket routes
	router.HandleFunc("/ws/games/{sessionId}", wsHandler.HandleWebSocket)

	// API routes
	api := router.PathPrefix("/api").Subrouter()

	// Auth routes (public)
	api.HandleFunc("/auth/register", rateLimiter.Limit(middleware.AccountCreationLimit, authHandler.Register)).Methods("POST")
	api.HandleFunc("/auth/login", rateLimiter.Limit(middleware.LoginAttemptLimit, authHandler.Login)).Methods("POST")

	// Auth routes (protected)
	authApi := api.PathPrefix("/auth").Subrouter()
	authApi.Use(authMiddleware.RequireAuth)
	authApi.HandleFunc("/me", authHandler.GetMe).Methods("GET")

	// Game routes (optional auth; anonymous players are welcome)
	gameApi := api.PathPrefix("/games").Subrouter()
	gameApi.Use(authMiddleware.OptionalAuth)
	gameApi.HandleFunc("", rateLimiter.Limit(middleware.GameCreationLimit, gameHandler.CreateGame)).Methods("POST")
	gameApi.HandleFunc("/recent", gameHandler.RecentGames).Methods("GET")
	gameApi.HandleFunc("/{sessionId}", gameHandler.GetGame).Methods("GET")
	gameApi.HandleFunc("/{sessionId}/click", gameHandler.Click).Methods("POST")
	gameApi.HandleFunc("/{sessionId}/resign", gameHandler.Resign).Methods("POST")

	// API Documentation
	router.HandleFunc("/docs", handlers.ServeAPIDocs).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
