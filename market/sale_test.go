package market_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

func TestListItem(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)

	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	status, err := tm.ledger.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusOnSale, status)

	order, err := tm.ledger.GetSaleOrder(id)
	require.NoError(t, err)
	assert.Equal(t, seller, order.Seller)
	assert.Equal(t, seller, order.Buyer)
	assert.Equal(t, defaultPrice, order.Price)
	assert.Equal(t, models.SaleStatusActive, order.Status)
}

func TestListItemPreconditions(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)

	// unknown id
	assert.ErrorIs(t, tm.ledger.ListItem(ctx, seller, 99, defaultPrice), market.ErrNotFound)

	// zero price
	assert.ErrorIs(t, tm.ledger.ListItem(ctx, seller, id, 0), market.ErrInvalidPrice)

	// not the owner
	assert.ErrorIs(t, tm.ledger.ListItem(ctx, buyer, id, defaultPrice), market.ErrNotAuthorized)
}

func TestListItemAlreadyListed(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	assert.ErrorIs(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice), market.ErrAlreadyListed)
	assert.ErrorIs(t, tm.ledger.ListItemOnAuction(ctx, seller, id, defaultPrice), market.ErrAlreadyListed)
}

func TestBuyItem(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))
	tm.fund(buyer, defaultPrice)

	soldBefore := tm.ledger.ItemsSold()
	require.NoError(t, tm.ledger.BuyItem(ctx, buyer, id))

	// buyer spent tokens and received the item
	assert.Equal(t, uint64(0), tm.balance(buyer))
	assert.Equal(t, defaultPrice, tm.balance(seller))
	owner, err := tm.nft.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)

	// order filled, item back to ACTIVE under the buyer
	order, err := tm.ledger.GetSaleOrder(id)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusSold, order.Status)
	assert.Equal(t, buyer, order.Buyer)

	status, err := tm.ledger.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusActive, status)

	assert.Equal(t, soldBefore+1, tm.ledger.ItemsSold())

	event, ok := tm.events.last()
	require.True(t, ok)
	assert.Equal(t, models.EventSold, event.Type)
	assert.Equal(t, id, event.ItemID)
	assert.Equal(t, defaultPrice, event.Amount)
	assert.Equal(t, seller, event.Seller)
	assert.Equal(t, buyer, event.Buyer)
	assert.False(t, event.Timestamp.IsZero())
}

func TestBuyItemNotOnSale(t *testing.T) {
	tm := newTestMarket()
	id := tm.mint(seller)
	tm.fund(buyer, defaultPrice)

	err := tm.ledger.BuyItem(context.Background(), buyer, id)
	assert.ErrorIs(t, err, market.ErrNotOnSale)
}

func TestBuyItemInsufficientFundsLeavesStateUntouched(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	// no allowance at all
	err := tm.ledger.BuyItem(ctx, buyer, id)
	assert.ErrorIs(t, err, market.ErrInsufficientAllowance)

	// allowance but no balance
	tm.pay.Approve(ctx, buyer, self, defaultPrice)
	err = tm.ledger.BuyItem(ctx, buyer, id)
	assert.ErrorIs(t, err, market.ErrInsufficientBalance)

	// order still live, item still on sale, seller unpaid
	order, orderErr := tm.ledger.GetSaleOrder(id)
	require.NoError(t, orderErr)
	assert.Equal(t, models.SaleStatusActive, order.Status)

	status, statusErr := tm.ledger.GetStatus(id)
	require.NoError(t, statusErr)
	assert.Equal(t, models.ItemStatusOnSale, status)
	assert.Equal(t, uint64(0), tm.balance(seller))
	assert.Equal(t, uint64(0), tm.ledger.ItemsSold())
}

func TestBuyItemRevokedApprovalRefundsBuyer(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))
	tm.fund(buyer, defaultPrice)

	// the seller revokes the marketplace's standing approval after listing
	require.NoError(t, tm.nft.SetApprovalForAll(ctx, seller, self, false))

	err := tm.ledger.BuyItem(ctx, buyer, id)
	assert.ErrorIs(t, err, market.ErrNotAuthorized)

	// the buyer keeps the funds, the seller got nothing, ownership unchanged
	assert.Equal(t, defaultPrice, tm.balance(buyer))
	assert.Equal(t, uint64(0), tm.balance(seller))
	owner, ownerErr := tm.nft.OwnerOf(ctx, id)
	require.NoError(t, ownerErr)
	assert.Equal(t, seller, owner)
	assert.Equal(t, uint64(0), tm.ledger.ItemsSold())

	order, orderErr := tm.ledger.GetSaleOrder(id)
	require.NoError(t, orderErr)
	assert.Equal(t, models.SaleStatusActive, order.Status)

	// restoring the approval lets the buy settle (the first attempt spent
	// the buyer's allowance, so it must be granted again)
	require.NoError(t, tm.nft.SetApprovalForAll(ctx, seller, self, true))
	require.NoError(t, tm.pay.Approve(ctx, buyer, self, defaultPrice))
	require.NoError(t, tm.ledger.BuyItem(ctx, buyer, id))
	assert.Equal(t, defaultPrice, tm.balance(seller))
}

func TestCancelSale(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	require.NoError(t, tm.ledger.Cancel(ctx, seller, id))

	order, err := tm.ledger.GetSaleOrder(id)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCancelled, order.Status)

	// ownership unchanged, item back to ACTIVE
	owner, err := tm.nft.OwnerOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seller, owner)

	status, err := tm.ledger.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusActive, status)

	event, ok := tm.events.last()
	require.True(t, ok)
	assert.Equal(t, models.EventCanceled, event.Type)
	assert.Equal(t, id, event.ItemID)
	assert.Equal(t, seller, event.Canceller)
}

func TestCancelSaleByAdmin(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	require.NoError(t, tm.ledger.Cancel(ctx, admin, id))
}

func TestCancelSaleRequiresSellerOrAdmin(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	assert.ErrorIs(t, tm.ledger.Cancel(ctx, buyer, id), market.ErrNotAuthorized)
}

func TestCancelTwice(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))
	require.NoError(t, tm.ledger.Cancel(ctx, seller, id))

	assert.ErrorIs(t, tm.ledger.Cancel(ctx, seller, id), market.ErrNotOnSale)
}

func TestRelistAfterCancel(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))
	require.NoError(t, tm.ledger.Cancel(ctx, seller, id))

	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice*2))

	order, err := tm.ledger.GetSaleOrder(id)
	require.NoError(t, err)
	assert.Equal(t, defaultPrice*2, order.Price)
	assert.Equal(t, models.SaleStatusActive, order.Status)
}
