package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/grovert/zabbix-maintenance-assistant/internal/backend"
	"github.com/grovert/zabbix-maintenance-assistant/internal/config"
	"github.com/grovert/zabbix-maintenance-assistant/internal/conversation"
	"github.com/grovert/zabbix-maintenance-assistant/internal/gateway"
	"github.com/grovert/zabbix-maintenance-assistant/internal/orchestrator"
	"github.com/grovert/zabbix-maintenance-assistant/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting Zabbix Maintenance Assistant...")

	cfg := config.Load()
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("🔗 Backend URL: %s", cfg.BackendURL)

	// Conversation store: Redis when configured, in-memory otherwise
	var store conversation.Store
	if cfg.RedisURL != "" {
		log.Printf("💾 Redis URL: %s", cfg.RedisURL)
		redisStore, err := conversation.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("✅ Redis session store connected")
	} else {
		store = conversation.NewMemoryStore()
		log.Println("💾 Using in-memory session store (REDIS_URL not set)")
	}

	client := backend.New(cfg.BackendURL)
	orch := orchestrator.New(client, store, cfg)

	// Startup health probe, advisory only
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
	if status, notice := orch.Health(probeCtx); notice != nil {
		log.Printf("⚠️ %s", notice.Text)
	} else {
		log.Printf("✅ Backend healthy (provider: %s, version: %s)", status.AIProvider, status.Version)
	}
	cancelProbe()

	// Optional NATS front-end
	var natsTransport *transport.NATSTransport
	if cfg.NatsURL != "" {
		log.Printf("📡 NATS URL: %s", cfg.NatsURL)
		var err error
		natsTransport, err = transport.NewNATSTransport(cfg, orch)
		if err != nil {
			log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
		}
		defer natsTransport.Close()
		if err := natsTransport.Start(); err != nil {
			log.Fatalf("❌ Failed to start NATS transport: %v", err)
		}
	}

	// HTTP front-end
	gw := gateway.New(cfg, orch)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: gw.Router()}
	go func() {
		log.Printf("🌐 HTTP gateway listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	log.Println("✅ Maintenance Assistant is running!")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Error shutting down HTTP server: %v", err)
	}

	if natsTransport != nil {
		if err := natsTransport.Close(); err != nil {
			log.Printf("⚠️ Error closing NATS transport: %v", err)
		}
	}

	log.Println("👋 Maintenance Assistant stopped")
}
