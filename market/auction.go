package market

import (
	"context"
	"fmt"

	"github.com/aaronwang/nft-marketplace/models"
)

// ListItemOnAuction puts an item up for English auction. Same preconditions
// as ListItem; the auction order starts with the current bid equal to the
// start price, no bids, and the bidder slot unset.
func (l *Ledger) ListItemOnAuction(ctx context.Context, caller models.Identity, id uint64, startPrice uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return ErrNotFound
	}
	if item.Status == models.ItemStatusBurned {
		return ErrAlreadyBurned
	}
	if item.Status != models.ItemStatusActive {
		return ErrAlreadyListed
	}
	if startPrice == 0 {
		return ErrInvalidPrice
	}

	owner, err := l.nft.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotAuthorized
	}

	l.auctions[id] = &models.AuctionOrder{
		ItemID:         id,
		StartPrice:     startPrice,
		StartTime:      l.now(),
		CurrentBid:     startPrice,
		BidCount:       0,
		Seller:         caller,
		PreviousBidder: caller,
		CurrentBidder:  models.ZeroIdentity,
		Status:         models.AuctionStatusActive,
	}
	item.Status = models.ItemStatusOnAuction
	return nil
}

// MakeBid places a bid on a live auction. Bids stay open until the auction is
// explicitly finished, even past the nominal duration; only finalization is
// duration-gated. The bid must strictly exceed the current bid plus the
// minimal bid amount, including the very first bid against the start price.
//
// The new bid is escrowed before the displaced bidder is refunded, so the
// marketplace never holds less than it owes.
func (l *Ledger) MakeBid(ctx context.Context, caller models.Identity, id uint64, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.auctions[id]
	if !ok || order.Status != models.AuctionStatusActive {
		return ErrAuctionNotActive
	}
	if amount <= order.CurrentBid || amount-order.CurrentBid <= l.minBidAmount {
		return ErrBidTooLow
	}

	if err := l.pay.TransferFrom(ctx, l.self, caller, l.self, amount); err != nil {
		return err
	}
	if order.BidCount > 0 {
		if err := l.pay.Transfer(ctx, l.self, order.CurrentBidder, order.CurrentBid); err != nil {
			// Escrow can always cover the displaced bid, so this only fails
			// on a broken rail. Return the just-pulled funds to keep the
			// operation all-or-nothing.
			if pushErr := l.pay.Transfer(ctx, l.self, caller, amount); pushErr != nil {
				return fmt.Errorf("refund failed (%v) and unwinding bid failed: %w", err, pushErr)
			}
			return err
		}
		order.PreviousBidder = order.CurrentBidder
	}

	order.CurrentBid = amount
	order.CurrentBidder = caller
	order.BidCount++

	l.emit(models.MarketEvent{
		Type:      models.EventBidIsMade,
		ItemID:    id,
		Amount:    amount,
		BidCount:  order.BidCount,
		Bidder:    caller,
		Timestamp: l.now(),
	})
	return nil
}

// FinishAuction finalizes a live auction once the configured duration has
// elapsed since its start. With no bids the auction ends unsuccessfully and
// the seller keeps the item; with at least one bid the escrowed winning bid
// is credited to the seller and the asset moves to the top bidder. If the
// asset cannot be moved the credit is unwound and the auction stays live, so
// the finish can be retried once the seller restores the approval. Both end
// states are terminal.
func (l *Ledger) FinishAuction(ctx context.Context, caller models.Identity, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.auctions[id]
	if !ok || order.Status != models.AuctionStatusActive {
		return ErrAuctionNotActive
	}
	if l.now().Sub(order.StartTime) < l.auctionDuration {
		return ErrAuctionNotComplete
	}
	item := l.items[id]

	if order.BidCount == 0 {
		order.Status = models.AuctionStatusUnsuccessfulEnd
		item.Status = models.ItemStatusActive
		return nil
	}

	// Escrow always covers the winning bid, so the seller credit is the safe
	// first interaction; the asset transfer is the one that can fail on a
	// revoked approval.
	winner := order.CurrentBidder
	if err := l.pay.Transfer(ctx, l.self, order.Seller, order.CurrentBid); err != nil {
		return err
	}
	if err := l.nft.TransferFrom(ctx, l.self, order.Seller, winner, id); err != nil {
		if pushErr := l.pay.Transfer(ctx, order.Seller, l.self, order.CurrentBid); pushErr != nil {
			return fmt.Errorf("asset transfer failed (%v) and reclaiming seller credit failed: %w", err, pushErr)
		}
		return err
	}

	order.Status = models.AuctionStatusSuccessfulEnd
	item.Status = models.ItemStatusActive
	item.Owner = winner
	l.itemsSold++

	l.emit(models.MarketEvent{
		Type:      models.EventPositiveEndAuction,
		ItemID:    id,
		Amount:    order.CurrentBid,
		BidCount:  order.BidCount,
		Seller:    order.Seller,
		Winner:    winner,
		Timestamp: l.now(),
	})
	return nil
}
