package market

import (
	"context"

	"github.com/aaronwang/nft-marketplace/models"
)

// PaymentRail is the external fungible-token ledger the marketplace settles
// in. Transfer is a settlement push under the marketplace's authority (its
// own escrow, or unwinding funds it just settled); TransferFrom moves funds
// on behalf of another identity and is gated by a prior Approve from that
// identity. Failures (insufficient balance or allowance) propagate as
// operation failure and are never swallowed.
type PaymentRail interface {
	BalanceOf(ctx context.Context, id models.Identity) (uint64, error)
	Transfer(ctx context.Context, from, to models.Identity, amount uint64) error
	TransferFrom(ctx context.Context, spender, from, to models.Identity, amount uint64) error
	Approve(ctx context.Context, owner, spender models.Identity, amount uint64) error
}

// AssetRegistry is the external ownership ledger for the collectible assets.
// The marketplace holds standing approval (SetApprovalForAll) to move assets
// on sellers' behalf; Mint and Burn are driven only by the marketplace.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, id uint64) (models.Identity, error)
	TransferFrom(ctx context.Context, operator, from, to models.Identity, id uint64) error
	SetApprovalForAll(ctx context.Context, owner, operator models.Identity, approved bool) error
	Mint(ctx context.Context, to models.Identity, uri string) (uint64, error)
	Burn(ctx context.Context, id uint64) error
}

// EventSink receives marketplace events after the originating state
// transition has committed. Implementations must not call back into the
// ledger and should hand the event off quickly (the in-process sinks fan out
// on their own goroutines).
type EventSink interface {
	Emit(event models.MarketEvent)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(event models.MarketEvent)

func (f SinkFunc) Emit(event models.MarketEvent) { f(event) }
