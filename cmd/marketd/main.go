package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aaronwang/nft-marketplace/adapters/mem"
	"github.com/aaronwang/nft-marketplace/config"
	"github.com/aaronwang/nft-marketplace/internal/handlers"
	redisClient "github.com/aaronwang/nft-marketplace/internal/redis"
	"github.com/aaronwang/nft-marketplace/internal/service"
	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

func main() {
	fmt.Println("Starting Marketplace API...")

	// Load configuration from environment variables
	cfg := loadConfig()

	// Initialize Redis client
	fmt.Println("Connecting to Redis...")
	redis, err := redisClient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Printf("Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer redis.Close()
	fmt.Println("Connected to Redis")

	// Initialize NATS connection
	fmt.Println("Connecting to NATS...")
	natsConn, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		fmt.Printf("Failed to connect to NATS: %v\n", err)
		os.Exit(1)
	}
	defer natsConn.Close()
	fmt.Println("Connected to NATS")

	// Build the ledger and bind the in-memory collaborators. The in-memory
	// payment rail and asset registry stand in for the external ledgers so
	// the server runs standalone.
	ledger := market.NewLedger(market.Config{
		Self:            models.Identity(cfg.SelfIdentity),
		Admin:           models.Identity(cfg.AdminIdentity),
		MintPrice:       cfg.MintPrice,
		AuctionDuration: time.Duration(cfg.AuctionDurationSeconds) * time.Second,
		MinBidAmount:    cfg.MinBidAmount,
	})

	pay := mem.NewTokenLedger()
	nft := mem.NewAssetRegistry()
	admin := models.Identity(cfg.AdminIdentity)
	if err := ledger.SetPaymentRail(admin, pay); err != nil {
		fmt.Printf("Failed to bind payment rail: %v\n", err)
		os.Exit(1)
	}
	if err := ledger.SetAssetRegistry(admin, nft); err != nil {
		fmt.Printf("Failed to bind asset registry: %v\n", err)
		os.Exit(1)
	}

	seedIdentities(cfg, ledger, pay, nft)

	// Initialize services
	marketService, err := service.NewMarketService(ledger, redis, natsConn)
	if err != nil {
		fmt.Printf("Failed to create market service: %v\n", err)
		os.Exit(1)
	}

	// Initialize HTTP handlers
	handler := handlers.NewHandler(marketService)
	router := handler.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		fmt.Printf("Marketplace API listening on %s\n", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")

	// Graceful shutdown with 30 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}

	fmt.Println("Server stopped gracefully")
}

// seedIdentities credits the configured dev identities on the in-memory rail
// and grants the marketplace its standing approvals on their behalf.
// Format: "alice:10000,bob:5000"
func seedIdentities(cfg *Config, ledger *market.Ledger, pay *mem.TokenLedger, nft *mem.AssetRegistry) {
	ctx := context.Background()
	self := ledger.Self()

	for _, entry := range strings.Split(cfg.SeedIdentities, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		id := models.Identity(parts[0])
		var balance uint64
		if len(parts) == 2 {
			balance, _ = strconv.ParseUint(parts[1], 10, 64)
		}

		pay.Credit(id, balance)
		pay.Approve(ctx, id, self, math.MaxUint64)
		nft.SetApprovalForAll(ctx, id, self, true)
		fmt.Printf("Seeded identity %s with balance %d\n", id, balance)
	}
}

// Config holds application configuration
type Config struct {
	ServerAddr    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NatsURL       string

	SelfIdentity           string
	AdminIdentity          string
	MintPrice              uint64
	AuctionDurationSeconds int64
	MinBidAmount           uint64
	SeedIdentities         string
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	return &Config{
		ServerAddr:    config.GetEnv("SERVER_ADDR", ":8080"),
		RedisAddr:     config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: config.GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       config.GetEnvInt("REDIS_DB", 0),
		NatsURL:       config.GetEnv("NATS_URL", "nats://localhost:4222"),

		SelfIdentity:           config.GetEnv("MARKET_SELF", "marketplace"),
		AdminIdentity:          config.GetEnv("MARKET_ADMIN", "admin"),
		MintPrice:              config.GetEnvUint64("MARKET_MINT_PRICE", 100),
		AuctionDurationSeconds: config.GetEnvInt64("MARKET_AUCTION_DURATION", 3*24*3600),
		MinBidAmount:           config.GetEnvUint64("MARKET_MIN_BID_AMOUNT", 2),
		SeedIdentities:         config.GetEnv("MARKET_SEED_IDENTITIES", "admin:1000000"),
	}
}
