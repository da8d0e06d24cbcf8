package models

import "time"

// EventType identifies a marketplace event for routing and archival.
type EventType string

const (
	EventSold               EventType = "sold"
	EventCanceled           EventType = "canceled"
	EventBidIsMade          EventType = "bid_is_made"
	EventPositiveEndAuction EventType = "positive_end_auction"
	EventBurned             EventType = "burned"
)

// MarketEvent is the envelope published for every observable marketplace
// event. This is sent to:
//  1. Redis Pub/Sub (for real-time WebSocket broadcast)
//  2. NATS JetStream (for archival to PostgreSQL)
//
// Only the fields relevant to the event type are set:
//
//	sold:                 item_id, amount (price), seller, buyer, timestamp
//	canceled:             item_id, canceller
//	bid_is_made:          item_id, amount, bid_count, bidder
//	positive_end_auction: item_id, amount (final bid), bid_count, seller, winner, timestamp
//	burned:               item_id, owner, timestamp
type MarketEvent struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	ItemID    uint64    `json:"item_id"`
	Amount    uint64    `json:"amount,omitempty"`
	BidCount  uint64    `json:"bid_count,omitempty"`
	Seller    Identity  `json:"seller,omitempty"`
	Buyer     Identity  `json:"buyer,omitempty"`
	Bidder    Identity  `json:"bidder,omitempty"`
	Winner    Identity  `json:"winner,omitempty"`
	Owner     Identity  `json:"owner,omitempty"`
	Canceller Identity  `json:"canceller,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
