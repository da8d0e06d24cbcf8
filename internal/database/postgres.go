package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/aaronwang/nft-marketplace/models"
)

// PostgresClient wraps the PostgreSQL database connection
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(connStr string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresClient{db: db}, nil
}

// InitSchema creates the necessary database tables
func (c *PostgresClient) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id BIGINT PRIMARY KEY,
		owner_id VARCHAR(255),
		current_bid BIGINT DEFAULT 0,
		highest_bidder_id VARCHAR(255),
		status VARCHAR(50) DEFAULT 'active',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS market_events (
		event_id VARCHAR(255) PRIMARY KEY,
		event_type VARCHAR(50) NOT NULL,
		item_id BIGINT NOT NULL,
		amount BIGINT DEFAULT 0,
		bid_count BIGINT DEFAULT 0,
		seller_id VARCHAR(255),
		buyer_id VARCHAR(255),
		bidder_id VARCHAR(255),
		winner_id VARCHAR(255),
		owner_id VARCHAR(255),
		canceller_id VARCHAR(255),
		event_time TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS bids (
		event_id VARCHAR(255) PRIMARY KEY,
		item_id BIGINT NOT NULL,
		bidder_id VARCHAR(255) NOT NULL,
		amount BIGINT NOT NULL,
		bid_count BIGINT NOT NULL,
		event_time TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_market_events_item_id ON market_events(item_id);
	CREATE INDEX IF NOT EXISTS idx_market_events_type ON market_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_bids_item_id ON bids(item_id);
	CREATE INDEX IF NOT EXISTS idx_bids_event_time ON bids(event_time);
	`

	_, err := c.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// InsertEvent inserts a marketplace event record into the database
func (c *PostgresClient) InsertEvent(ctx context.Context, event *models.MarketEvent) error {
	query := `
		INSERT INTO market_events
			(event_id, event_type, item_id, amount, bid_count,
			 seller_id, buyer_id, bidder_id, winner_id, owner_id, canceller_id, event_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		event.EventID,
		string(event.Type),
		event.ItemID,
		event.Amount,
		event.BidCount,
		string(event.Seller),
		string(event.Buyer),
		string(event.Bidder),
		string(event.Winner),
		string(event.Owner),
		string(event.Canceller),
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// InsertBid inserts a bid record into the database
func (c *PostgresClient) InsertBid(ctx context.Context, event *models.MarketEvent) error {
	query := `
		INSERT INTO bids (event_id, item_id, bidder_id, amount, bid_count, event_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		event.EventID,
		event.ItemID,
		string(event.Bidder),
		event.Amount,
		event.BidCount,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	return nil
}

// UpdateItemCurrentBid updates the current bid for an item
func (c *PostgresClient) UpdateItemCurrentBid(ctx context.Context, itemID uint64, amount uint64, bidderID models.Identity) error {
	query := `
		UPDATE items
		SET current_bid = $1,
		    highest_bidder_id = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	result, err := c.db.ExecContext(ctx, query, amount, string(bidderID), itemID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Item row not archived yet, create it
		return c.createItemIfNotExists(ctx, itemID)
	}

	return nil
}

// UpdateItemState updates the archived owner and status of an item
func (c *PostgresClient) UpdateItemState(ctx context.Context, itemID uint64, ownerID models.Identity, status string) error {
	query := `
		UPDATE items
		SET owner_id = $1,
		    status = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	result, err := c.db.ExecContext(ctx, query, string(ownerID), status, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		if err := c.createItemIfNotExists(ctx, itemID); err != nil {
			return err
		}
		_, err = c.db.ExecContext(ctx, query, string(ownerID), status, itemID)
		return err
	}

	return nil
}

// createItemIfNotExists creates a placeholder item row if it doesn't exist
func (c *PostgresClient) createItemIfNotExists(ctx context.Context, itemID uint64) error {
	query := `
		INSERT INTO items (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := c.db.ExecContext(ctx, query, itemID)
	return err
}

// GetBidHistory retrieves the archived bid history for an item
func (c *PostgresClient) GetBidHistory(ctx context.Context, itemID uint64, limit int) ([]*models.MarketEvent, error) {
	query := `
		SELECT event_id, item_id, bidder_id, amount, bid_count, event_time
		FROM bids
		WHERE item_id = $1
		ORDER BY event_time DESC
		LIMIT $2
	`

	rows, err := c.db.QueryContext(ctx, query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []*models.MarketEvent
	for rows.Next() {
		bid := &models.MarketEvent{Type: models.EventBidIsMade}
		var bidder string
		err := rows.Scan(
			&bid.EventID,
			&bid.ItemID,
			&bidder,
			&bid.Amount,
			&bid.BidCount,
			&bid.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bid.Bidder = models.Identity(bidder)
		bids = append(bids, bid)
	}

	return bids, rows.Err()
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	return c.db.Close()
}
