package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"

	redisClient "github.com/aaronwang/nft-marketplace/internal/redis"
)

// MarketService fronts the marketplace ledger for the HTTP layer and fans
// committed events out to the downstream systems:
//  1. NATS core subjects for the real-time broadcast path
//  2. NATS JetStream for archival (at-least-once, consumed by archiverd)
//  3. Redis: write-through read cache plus Pub/Sub mirror for broadcastd
//
// The write path never depends on fan-out: a slow or absent downstream
// cannot fail a marketplace operation.
type MarketService struct {
	ledger *market.Ledger
	redis  *redisClient.Client
	nats   *nats.Conn
	js     jetstream.JetStream
}

// NewMarketService creates the service, ensures the archival stream exists,
// and installs itself as the ledger's event sink.
func NewMarketService(ledger *market.Ledger, redis *redisClient.Client, natsConn *nats.Conn) (*MarketService, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        "MARKET_EVENTS",
		Description: "Stream for marketplace events archival",
		Subjects:    []string{"market.archive.*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}
	fmt.Println("[JETSTREAM] Stream 'MARKET_EVENTS' ready")

	s := &MarketService{
		ledger: ledger,
		redis:  redis,
		nats:   natsConn,
		js:     js,
	}
	ledger.SetEventSink(s)
	return s, nil
}

// Emit implements market.EventSink. Called by the ledger after the state
// transition committed; all downstream delivery is best effort and async.
func (s *MarketService) Emit(event models.MarketEvent) {
	go s.broadcastEvent(event)
	go s.archiveEvent(event)
	go s.refreshCache(event)
}

// broadcastEvent publishes to NATS core and mirrors to Redis Pub/Sub for the
// broadcast service.
func (s *MarketService) broadcastEvent(event models.MarketEvent) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		fmt.Printf("Warning: failed to marshal event for NATS: %v\n", err)
		return
	}

	subject := fmt.Sprintf("market.events.%d", event.ItemID)
	if err := s.nats.Publish(subject, eventJSON); err != nil {
		fmt.Printf("Warning: failed to publish event to NATS: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.redis.PublishEvent(ctx, event); err != nil {
		fmt.Printf("Warning: failed to publish event to Redis: %v\n", err)
	}
}

// archiveEvent publishes to JetStream for durable archival. JetStream
// Publish waits for server acknowledgment, so the message is persisted
// before this returns.
func (s *MarketService) archiveEvent(event models.MarketEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		fmt.Printf("Warning: failed to marshal event for archival: %v\n", err)
		return
	}

	subject := fmt.Sprintf("market.archive.%d", event.ItemID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		fmt.Printf("Warning: failed to publish to archival queue: %v\n", err)
		return
	}
	fmt.Printf("[JETSTREAM] Published to %s, seq=%d\n", subject, ack.Sequence)
}

// refreshCache keeps the Redis read cache in step with the ledger.
func (s *MarketService) refreshCache(event models.MarketEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch event.Type {
	case models.EventBidIsMade:
		if err := s.redis.UpdateItemBid(ctx, event.ItemID, event.Amount, event.Bidder); err != nil {
			fmt.Printf("Warning: failed to update bid cache: %v\n", err)
		}
	case models.EventSold, models.EventCanceled, models.EventPositiveEndAuction:
		if err := s.redis.UpdateItemStatus(ctx, event.ItemID, models.ItemStatusActive); err != nil {
			fmt.Printf("Warning: failed to update status cache: %v\n", err)
		}
	case models.EventBurned:
		if err := s.redis.UpdateItemStatus(ctx, event.ItemID, models.ItemStatusBurned); err != nil {
			fmt.Printf("Warning: failed to update status cache: %v\n", err)
		}
	}
}

// CreateItem mints a new item (administrative identity only).
func (s *MarketService) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	item, err := s.ledger.CreateItem(ctx, req.Caller, req.URI, req.Owner)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.redis.UpdateItemStatus(ctx, item.ID, item.Status); cacheErr != nil {
		fmt.Printf("Warning: failed to cache new item status: %v\n", cacheErr)
	}
	return item, nil
}

// Burn destroys an item (administrative identity only).
func (s *MarketService) Burn(ctx context.Context, caller models.Identity, itemID uint64) error {
	return s.ledger.Burn(ctx, caller, itemID)
}

// ListItem puts an item up for fixed-price sale.
func (s *MarketService) ListItem(ctx context.Context, caller models.Identity, itemID uint64, price uint64) error {
	if err := s.ledger.ListItem(ctx, caller, itemID, price); err != nil {
		return err
	}
	if cacheErr := s.redis.UpdateItemStatus(ctx, itemID, models.ItemStatusOnSale); cacheErr != nil {
		fmt.Printf("Warning: failed to cache item status: %v\n", cacheErr)
	}
	return nil
}

// BuyItem fills a live sale order.
func (s *MarketService) BuyItem(ctx context.Context, caller models.Identity, itemID uint64) error {
	return s.ledger.BuyItem(ctx, caller, itemID)
}

// Cancel delists a sale or a zero-bid auction.
func (s *MarketService) Cancel(ctx context.Context, caller models.Identity, itemID uint64) error {
	return s.ledger.Cancel(ctx, caller, itemID)
}

// ListItemOnAuction puts an item up for English auction.
func (s *MarketService) ListItemOnAuction(ctx context.Context, caller models.Identity, itemID uint64, startPrice uint64) error {
	if err := s.ledger.ListItemOnAuction(ctx, caller, itemID, startPrice); err != nil {
		return err
	}
	if cacheErr := s.redis.UpdateItemBid(ctx, itemID, startPrice, models.ZeroIdentity); cacheErr != nil {
		fmt.Printf("Warning: failed to cache start price: %v\n", cacheErr)
	}
	if cacheErr := s.redis.UpdateItemStatus(ctx, itemID, models.ItemStatusOnAuction); cacheErr != nil {
		fmt.Printf("Warning: failed to cache item status: %v\n", cacheErr)
	}
	return nil
}

// MakeBid places a bid and shapes the API response. A rejected bid is a
// normal response, not an error.
func (s *MarketService) MakeBid(ctx context.Context, itemID uint64, req *models.BidRequest) (*models.BidResponse, error) {
	err := s.ledger.MakeBid(ctx, req.Caller, itemID, req.Amount)
	if errors.Is(err, market.ErrBidTooLow) {
		order, orderErr := s.ledger.GetAuctionOrder(itemID)
		if orderErr != nil {
			return nil, orderErr
		}
		return &models.BidResponse{
			Success:    false,
			Message:    fmt.Sprintf("Bid too low. Current highest bid is %d", order.CurrentBid),
			CurrentBid: order.CurrentBid,
			YourBid:    req.Amount,
			IsHighest:  false,
			BidCount:   order.BidCount,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	order, err := s.ledger.GetAuctionOrder(itemID)
	if err != nil {
		return nil, err
	}
	return &models.BidResponse{
		Success:    true,
		Message:    "Bid placed successfully!",
		CurrentBid: order.CurrentBid,
		YourBid:    req.Amount,
		IsHighest:  true,
		BidCount:   order.BidCount,
		Bidder:     req.Caller,
	}, nil
}

// FinishAuction finalizes an elapsed auction.
func (s *MarketService) FinishAuction(ctx context.Context, caller models.Identity, itemID uint64) error {
	return s.ledger.FinishAuction(ctx, caller, itemID)
}

// WithdrawTokens moves accumulated marketplace funds (administrative
// identity only).
func (s *MarketService) WithdrawTokens(ctx context.Context, req *models.WithdrawRequest) error {
	return s.ledger.WithdrawTokens(ctx, req.Caller, req.To, req.Amount)
}

// GetItem returns the per-item read model: the item plus any orders for it.
func (s *MarketService) GetItem(ctx context.Context, itemID uint64) (*models.ItemView, error) {
	item, err := s.ledger.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	view := &models.ItemView{Item: item}
	if sale, err := s.ledger.GetSaleOrder(itemID); err == nil {
		view.Sale = sale
	}
	if auction, err := s.ledger.GetAuctionOrder(itemID); err == nil {
		view.Auction = auction

		// serve the hot bid from the cache when it is populated
		if bid, bidder, err := s.redis.GetItemBid(ctx, itemID); err == nil && bid > 0 {
			view.CachedBid = &models.CachedBid{Amount: bid, Bidder: bidder}
		}
	}
	return view, nil
}

// Stats returns the global counters.
func (s *MarketService) Stats() *models.StatsView {
	return &models.StatsView{
		TotalAmount: s.ledger.TotalAmount(),
		ItemsSold:   s.ledger.ItemsSold(),
	}
}

// GetConfig returns the current marketplace configuration.
func (s *MarketService) GetConfig() *models.ConfigView {
	return &models.ConfigView{
		Admin:           s.ledger.Admin(),
		MintPrice:       s.ledger.MintPrice(),
		AuctionDuration: int64(s.ledger.AuctionDuration() / time.Second),
		MinBidAmount:    s.ledger.MinBidAmount(),
	}
}

// UpdateConfig applies the non-nil fields of the request (administrative
// identity only).
func (s *MarketService) UpdateConfig(req *models.ConfigUpdateRequest) error {
	if req.MintPrice != nil {
		if err := s.ledger.SetMintPrice(req.Caller, *req.MintPrice); err != nil {
			return err
		}
	}
	if req.AuctionDuration != nil {
		if err := s.ledger.SetAuctionDuration(req.Caller, time.Duration(*req.AuctionDuration)*time.Second); err != nil {
			return err
		}
	}
	if req.MinBidAmount != nil {
		if err := s.ledger.SetMinBidAmount(req.Caller, *req.MinBidAmount); err != nil {
			return err
		}
	}
	return nil
}
