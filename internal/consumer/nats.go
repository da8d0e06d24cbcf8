package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aaronwang/nft-marketplace/internal/database"
	"github.com/aaronwang/nft-marketplace/models"
)

// NATSConsumer consumes marketplace events from NATS and persists them to
// the database
type NATSConsumer struct {
	conn *nats.Conn
	sub  *nats.Subscription
	db   *database.PostgresClient
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(natsURL string, db *database.PostgresClient) (*NATSConsumer, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSConsumer{
		conn: conn,
		db:   db,
	}, nil
}

// Start begins consuming messages from NATS
// Subject pattern: "market.archive.*" covers all item event streams
func (c *NATSConsumer) Start(ctx context.Context) error {
	sub, err := c.conn.Subscribe("market.archive.*", func(msg *nats.Msg) {
		c.handleMessage(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.sub = sub
	fmt.Println("Subscribed to NATS subject: market.archive.*")

	// Keep consumer running until context is cancelled
	<-ctx.Done()
	return nil
}

// handleMessage processes a single marketplace event message
func (c *NATSConsumer) handleMessage(ctx context.Context, msg *nats.Msg) {
	var event models.MarketEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		fmt.Printf("Failed to unmarshal event: %v\n", err)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := c.persistEvent(dbCtx, &event); err != nil {
		fmt.Printf("Failed to persist event %s: %v\n", event.EventID, err)
		// In production, you'd want retry logic or a dead-letter queue here
		return
	}

	fmt.Printf("Persisted %s event %s (item: %d)\n", event.Type, event.EventID, event.ItemID)

	msg.Ack()
}

// persistEvent writes the event record and updates the archived item state
func (c *NATSConsumer) persistEvent(ctx context.Context, event *models.MarketEvent) error {
	if err := c.db.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	switch event.Type {
	case models.EventBidIsMade:
		if err := c.db.InsertBid(ctx, event); err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}
		if err := c.db.UpdateItemCurrentBid(ctx, event.ItemID, event.Amount, event.Bidder); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	case models.EventSold:
		if err := c.db.UpdateItemState(ctx, event.ItemID, event.Buyer, models.ItemStatusActive.String()); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	case models.EventPositiveEndAuction:
		if err := c.db.UpdateItemState(ctx, event.ItemID, event.Winner, models.ItemStatusActive.String()); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	case models.EventBurned:
		if err := c.db.UpdateItemState(ctx, event.ItemID, event.Owner, models.ItemStatusBurned.String()); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	}

	return nil
}

// Close closes the NATS connection
func (c *NATSConsumer) Close() error {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.conn.Close()
	return nil
}
