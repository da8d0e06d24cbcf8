package models

// BidRequest represents an incoming bid from the API
type BidRequest struct {
	Caller Identity `json:"caller"`
	Amount uint64   `json:"amount"`
}

// BidResponse represents the API response after placing a bid
type BidResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	CurrentBid uint64   `json:"current_bid"`
	YourBid    uint64   `json:"your_bid"`
	IsHighest  bool     `json:"is_highest"`
	BidCount   uint64   `json:"bid_count"`
	Bidder     Identity `json:"bidder,omitempty"`
}

// CreateItemRequest mints a new item (administrative identity only)
type CreateItemRequest struct {
	Caller Identity `json:"caller"`
	URI    string   `json:"uri"`
	Owner  Identity `json:"owner"`
}

// ListItemRequest puts an item up for fixed-price sale or on auction
type ListItemRequest struct {
	Caller Identity `json:"caller"`
	Price  uint64   `json:"price"`
}

// CallerRequest carries just the acting identity (buy, cancel, finish, burn)
type CallerRequest struct {
	Caller Identity `json:"caller"`
}

// WithdrawRequest moves accumulated marketplace funds (administrative identity only)
type WithdrawRequest struct {
	Caller Identity `json:"caller"`
	To     Identity `json:"to"`
	Amount uint64   `json:"amount"`
}

// ConfigUpdateRequest reconfigures marketplace parameters (administrative
// identity only). Nil fields are left unchanged.
type ConfigUpdateRequest struct {
	Caller          Identity `json:"caller"`
	MintPrice       *uint64  `json:"mint_price,omitempty"`
	AuctionDuration *int64   `json:"auction_duration_seconds,omitempty"`
	MinBidAmount    *uint64  `json:"min_bid_amount,omitempty"`
}

// ConfigView is the read side of the marketplace configuration
type ConfigView struct {
	Admin           Identity `json:"admin"`
	MintPrice       uint64   `json:"mint_price"`
	AuctionDuration int64    `json:"auction_duration_seconds"`
	MinBidAmount    uint64   `json:"min_bid_amount"`
}

// StatsView holds the global marketplace counters
type StatsView struct {
	TotalAmount uint64 `json:"total_amount"`
	ItemsSold   uint64 `json:"items_sold"`
}

// CachedBid is the redis-backed hot view of an item's highest bid.
type CachedBid struct {
	Amount uint64   `json:"amount"`
	Bidder Identity `json:"bidder,omitempty"`
}

// ItemView is the full per-item read model: status plus any live or
// historical orders for the id.
type ItemView struct {
	Item      *Item         `json:"item"`
	Sale      *SaleOrder    `json:"sale,omitempty"`
	Auction   *AuctionOrder `json:"auction,omitempty"`
	CachedBid *CachedBid    `json:"cached_bid,omitempty"`
}
