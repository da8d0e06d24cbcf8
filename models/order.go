package models

import "time"

// SaleStatus is the lifecycle state of a fixed-price sale order.
type SaleStatus int

const (
	SaleStatusActive SaleStatus = iota + 1
	SaleStatusSold
	SaleStatusCancelled
)

func (s SaleStatus) String() string {
	switch s {
	case SaleStatusActive:
		return "active"
	case SaleStatusSold:
		return "sold"
	case SaleStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SaleOrder is a fixed-price listing for one item. Buyer starts out equal to
// the seller and is replaced when the order fills.
type SaleOrder struct {
	ItemID uint64     `json:"item_id"`
	Seller Identity   `json:"seller"`
	Buyer  Identity   `json:"buyer"`
	Price  uint64     `json:"price"`
	Status SaleStatus `json:"status"`
}

// AuctionStatus is the lifecycle state of an auction order.
type AuctionStatus int

const (
	AuctionStatusActive AuctionStatus = iota + 1
	AuctionStatusSuccessfulEnd
	AuctionStatusUnsuccessfulEnd
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionStatusActive:
		return "active"
	case AuctionStatusSuccessfulEnd:
		return "successful_end"
	case AuctionStatusUnsuccessfulEnd:
		return "unsuccessful_end"
	default:
		return "unknown"
	}
}

// AuctionOrder is a timed ascending-bid listing for one item.
//
// CurrentBid starts at the start price and is non-decreasing over the order's
// life. PreviousBidder tracks the displaced bidder for refund bookkeeping and
// starts out equal to the seller; CurrentBidder is the zero identity until the
// first bid is accepted.
type AuctionOrder struct {
	ItemID         uint64        `json:"item_id"`
	StartPrice     uint64        `json:"start_price"`
	StartTime      time.Time     `json:"start_time"`
	CurrentBid     uint64        `json:"current_bid"`
	BidCount       uint64        `json:"bid_count"`
	Seller         Identity      `json:"seller"`
	PreviousBidder Identity      `json:"previous_bidder"`
	CurrentBidder  Identity      `json:"current_bidder,omitempty"`
	Status         AuctionStatus `json:"status"`
}
