package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"roomrelay/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := server.NewConfigFromEnv()
	server.SetConfig(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.RedisAddr != "" {
		bus, err := server.NewBroadcastBus(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect broadcast bus: %v", err)
		}
		defer bus.Close()
		server.GetHub().AttachBus(bus)
		log.Printf("Broadcast bus connected to %s", cfg.RedisAddr)
	}

	server.StartHub()

	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes())

	go func() {
		if err := server.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown incomplete: %v", err)
	}
	if err := server.GetHub().Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown incomplete: %v", err)
	}
}
