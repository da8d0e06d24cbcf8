package models

// Identity is an account identifier on the marketplace. The zero value means
// "no identity" (no bidder yet, unset buyer, and so on).
type Identity string

// ZeroIdentity is the unset identity.
const ZeroIdentity Identity = ""

// ItemStatus is the marketplace status of a collectible item.
type ItemStatus int

const (
	ItemStatusActive ItemStatus = iota + 1
	ItemStatusOnSale
	ItemStatusOnAuction
	ItemStatusBurned
)

func (s ItemStatus) String() string {
	switch s {
	case ItemStatusActive:
		return "active"
	case ItemStatusOnSale:
		return "on_sale"
	case ItemStatusOnAuction:
		return "on_auction"
	case ItemStatusBurned:
		return "burned"
	default:
		return "unknown"
	}
}

// Item represents a collectible item tracked by the marketplace.
// URI is stored opaquely and never interpreted.
type Item struct {
	ID     uint64     `json:"id"`
	Owner  Identity   `json:"owner"`
	Status ItemStatus `json:"status"`
	URI    string     `json:"uri"`
}
