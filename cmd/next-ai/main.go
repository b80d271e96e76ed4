package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-ai/internal/chatmodel"
	"github.com/ashwinyue/next-ai/internal/config"
	"github.com/ashwinyue/next-ai/internal/database"
	"github.com/ashwinyue/next-ai/internal/embedding"
	"github.com/ashwinyue/next-ai/internal/handler"
	"github.com/ashwinyue/next-ai/internal/memory"
	"github.com/ashwinyue/next-ai/internal/router"
	"github.com/ashwinyue/next-ai/internal/session"
	"github.com/ashwinyue/next-ai/internal/store"
	"github.com/ashwinyue/next-ai/internal/tools"
	"github.com/ashwinyue/next-ai/internal/vectorindex"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connected: %s", cfg.Database.DBName)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	embedder, err := embedding.New(ctx, cfg.Remote)
	if err != nil {
		log.Fatalf("Failed to init embedding client: %v", err)
	}

	vectors, err := vectorindex.New(cfg.Vector)
	if err != nil {
		log.Fatalf("Failed to init vector index client: %v", err)
	}

	chatModels, err := chatmodel.New(ctx, cfg.Local, cfg.Remote)
	if err != nil {
		log.Fatalf("Failed to init chat models: %v", err)
	}

	msgStore := store.New(db.DB)
	cache := memory.NewCache(redisClient)
	registry := tools.New(cfg, embedder, vectors)
	sessions := session.NewManager(redisClient)

	agentHandler := handler.NewAgentHandler(cfg, msgStore, cache, chatModels, registry, sessions)
	handlers := handler.NewHandlers(agentHandler)

	r := router.SetupRouter(cfg, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
