package market

import (
	"context"
	"fmt"

	"github.com/aaronwang/nft-marketplace/models"
)

// ListItem puts an item up for fixed-price sale. The caller must own the
// item, the item must be ACTIVE, and the price must be positive. A live sale
// order is created and the item moves to ON_SALE.
func (l *Ledger) ListItem(ctx context.Context, caller models.Identity, id uint64, price uint64) error {
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
	if price == 0 {
		return ErrInvalidPrice
	}

	owner, err := l.nft.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotAuthorized
	}

	l.sales[id] = &models.SaleOrder{
		ItemID: id,
		Seller: caller,
		Buyer:  caller,
		Price:  price,
		Status: models.SaleStatusActive,
	}
	item.Status = models.ItemStatusOnSale
	return nil
}

// BuyItem fills a live sale order. The price is pulled from the buyer's
// allowance straight to the seller, then the asset moves to the buyer. If
// the asset cannot be moved the payment is given back, so a returned error
// always leaves the buyer whole and the order live.
func (l *Ledger) BuyItem(ctx context.Context, caller models.Identity, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.sales[id]
	if !ok || order.Status != models.SaleStatusActive {
		return ErrNotOnSale
	}
	item := l.items[id]

	if err := l.pay.TransferFrom(ctx, l.self, caller, order.Seller, order.Price); err != nil {
		return err
	}
	if err := l.nft.TransferFrom(ctx, l.self, order.Seller, caller, id); err != nil {
		// The seller may have revoked the standing approval or moved the
		// asset out-of-band since listing. Return the payment to the buyer.
		if pushErr := l.pay.Transfer(ctx, order.Seller, caller, order.Price); pushErr != nil {
			return fmt.Errorf("asset transfer failed (%v) and returning payment failed: %w", err, pushErr)
		}
		return err
	}

	order.Status = models.SaleStatusSold
	order.Buyer = caller
	item.Status = models.ItemStatusActive
	item.Owner = caller
	l.itemsSold++

	l.emit(models.MarketEvent{
		Type:      models.EventSold,
		ItemID:    id,
		Amount:    order.Price,
		Seller:    order.Seller,
		Buyer:     caller,
		Timestamp: l.now(),
	})
	return nil
}

// Cancel delists an item. It serves both a live sale order and a zero-bid
// auction; an auction that already holds an escrowed bid cannot be cancelled.
// Only the seller or the administrative identity may cancel. Ownership is
// unchanged and the item returns to ACTIVE.
func (l *Ledger) Cancel(ctx context.Context, caller models.Identity, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return ErrNotFound
	}

	if order, ok := l.sales[id]; ok && order.Status == models.SaleStatusActive {
		if caller != order.Seller && caller != l.admin {
			return ErrNotAuthorized
		}
		order.Status = models.SaleStatusCancelled
		item.Status = models.ItemStatusActive

		l.emit(models.MarketEvent{
			Type:      models.EventCanceled,
			ItemID:    id,
			Canceller: caller,
			Timestamp: l.now(),
		})
		return nil
	}

	if order, ok := l.auctions[id]; ok && order.Status == models.AuctionStatusActive {
		if order.BidCount > 0 {
			return ErrCannotCancel
		}
		if caller != order.Seller && caller != l.admin {
			return ErrNotAuthorized
		}
		order.Status = models.AuctionStatusUnsuccessfulEnd
		item.Status = models.ItemStatusActive

		l.emit(models.MarketEvent{
			Type:      models.EventCanceled,
			ItemID:    id,
			Canceller: caller,
			Timestamp: l.now(),
		})
		return nil
	}

	return ErrNotOnSale
}
