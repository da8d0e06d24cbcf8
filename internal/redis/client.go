package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaronwang/nft-marketplace/models"
)

// Client wraps the Redis client with marketplace-specific operations. Redis
// holds a write-through read cache of per-item state (the ledger stays the
// book of record) and mirrors marketplace events to Pub/Sub for the
// broadcast service.
type Client struct {
	client *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb}, nil
}

// UpdateItemBid refreshes the cached highest bid and bidder for an item
func (c *Client) UpdateItemBid(ctx context.Context, itemID uint64, currentBid uint64, bidder models.Identity) error {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf("item:%d:current_bid", itemID), currentBid, 0)
	pipe.Set(ctx, fmt.Sprintf("item:%d:highest_bidder", itemID), string(bidder), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update item bid cache: %w", err)
	}
	return nil
}

// UpdateItemStatus refreshes the cached marketplace status of an item
func (c *Client) UpdateItemStatus(ctx context.Context, itemID uint64, status models.ItemStatus) error {
	key := fmt.Sprintf("item:%d:status", itemID)
	if err := c.client.Set(ctx, key, status.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to update item status cache: %w", err)
	}
	return nil
}

// GetItemBid retrieves the cached highest bid and bidder for an item
func (c *Client) GetItemBid(ctx context.Context, itemID uint64) (uint64, models.Identity, error) {
	pipe := c.client.Pipeline()

	bidCmd := pipe.Get(ctx, fmt.Sprintf("item:%d:current_bid", itemID))
	bidderCmd := pipe.Get(ctx, fmt.Sprintf("item:%d:highest_bidder", itemID))

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return 0, models.ZeroIdentity, fmt.Errorf("failed to get item bid: %w", err)
	}

	var bid uint64
	if bidCmd.Err() == nil {
		if err := bidCmd.Scan(&bid); err != nil {
			bid = 0
		}
	}

	var bidder models.Identity
	if bidderCmd.Err() == nil {
		bidder = models.Identity(bidderCmd.Val())
	}

	return bid, bidder, nil
}

// PublishEvent publishes a marketplace event to Redis Pub/Sub
// This will be picked up by the broadcast service for real-time WebSocket updates
func (c *Client) PublishEvent(ctx context.Context, event models.MarketEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("market_events:%d", event.ItemID)
	return c.client.Publish(ctx, channel, eventJSON).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}
