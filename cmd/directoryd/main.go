package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blastroyale/partysync/internal/cache"
	"github.com/blastroyale/partysync/internal/config"
	"github.com/blastroyale/partysync/internal/repository"
	"github.com/blastroyale/partysync/internal/service"
	"github.com/blastroyale/partysync/internal/transport/rest"
	"github.com/blastroyale/partysync/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()
	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database("partysync")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Wire repository, cache and service
	groupRepo := repository.NewGroupRepo(db)
	groupCache := cache.NewGroupCache(rdb)
	directorySvc := service.NewDirectoryService(groupRepo, groupCache)
	directorySvc.SetNotifier(wsHub)

	router := rest.NewRouter(&rest.Container{
		DirectoryService: directorySvc,
		WSHub:            wsHub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST/GET /v1/groups")
		log.Println("  GET/PATCH /v1/groups/{id}")
		log.Println("  POST /v1/groups/{id}/members")
		log.Println("  POST /v1/groups/{id}/leave")
		log.Println("  DELETE /v1/groups/{id}/members/{memberId}")
		log.Println("  WS  /v1/ws/groups/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
