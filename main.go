package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/tsiemasilo/pulse-app-system-sub000/config"
	"github.com/tsiemasilo/pulse-app-system-sub000/database"
	"github.com/tsiemasilo/pulse-app-system-sub000/handlers"
	"github.com/tsiemasilo/pulse-app-system-sub000/middleware"
	"github.com/tsiemasilo/pulse-app-system-sub000/routes"
	"github.com/tsiemasilo/pulse-app-system-sub000/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it")
	}

	config.LoadConfig()

	// Database connection
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	handlers.InitCollections()

	// Notification fan-out and the asset lifecycle engine (incl. the daily
	// reset scheduler).
	websocket.StartHub()
	handlers.InitAssetServices(websocket.NewNotifier())

	// Router setup
	router := mux.NewRouter()
	routes.RegisterRoutes(router)

	// Global middlewares (order matters!)
	var handler http.Handler = router
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CorsMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	server := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	handlers.StopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	database.Disconnect()
	log.Println("Shutdown complete")
}
