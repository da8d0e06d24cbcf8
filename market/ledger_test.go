package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

func TestGetters(t *testing.T) {
	tm := newTestMarket()

	assert.Equal(t, uint64(0), tm.ledger.TotalAmount())
	assert.Equal(t, uint64(0), tm.ledger.ItemsSold())
	assert.Equal(t, mintPrice, tm.ledger.MintPrice())
	assert.Equal(t, auctionTime, tm.ledger.AuctionDuration())
	assert.Equal(t, minBidAmount, tm.ledger.MinBidAmount())
	assert.Equal(t, admin, tm.ledger.Admin())
	assert.Equal(t, self, tm.ledger.Self())
}

func TestSetters(t *testing.T) {
	tm := newTestMarket()

	require.NoError(t, tm.ledger.SetMintPrice(admin, 1))
	assert.Equal(t, uint64(1), tm.ledger.MintPrice())

	require.NoError(t, tm.ledger.SetAuctionDuration(admin, 3*time.Second))
	assert.Equal(t, 3*time.Second, tm.ledger.AuctionDuration())

	require.NoError(t, tm.ledger.SetMinBidAmount(admin, 7))
	assert.Equal(t, uint64(7), tm.ledger.MinBidAmount())
}

func TestSettersRequireAdmin(t *testing.T) {
	tm := newTestMarket()

	assert.ErrorIs(t, tm.ledger.SetMintPrice(seller, 1), market.ErrNotAuthorized)
	assert.ErrorIs(t, tm.ledger.SetAuctionDuration(seller, time.Second), market.ErrNotAuthorized)
	assert.ErrorIs(t, tm.ledger.SetMinBidAmount(seller, 1), market.ErrNotAuthorized)
	assert.ErrorIs(t, tm.ledger.SetPaymentRail(seller, tm.pay), market.ErrNotAuthorized)
	assert.ErrorIs(t, tm.ledger.SetAssetRegistry(seller, tm.nft), market.ErrNotAuthorized)
}

func TestCreateItem(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()

	item, err := tm.ledger.CreateItem(ctx, admin, baseURI, seller)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), item.ID)
	assert.Equal(t, seller, item.Owner)
	assert.Equal(t, models.ItemStatusActive, item.Status)
	assert.Equal(t, baseURI, item.URI)
	assert.Equal(t, uint64(1), tm.ledger.TotalAmount())

	status, err := tm.ledger.GetStatus(1)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusActive, status)

	// ids are sequential
	second, err := tm.ledger.CreateItem(ctx, admin, baseURI, seller)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.ID)
}

func TestCreateItemChargesMintPrice(t *testing.T) {
	tm := newTestMarket()
	before := tm.balance(admin)

	tm.mint(seller)

	assert.Equal(t, before-mintPrice, tm.balance(admin))
	assert.Equal(t, mintPrice, tm.balance(self))
}

func TestCreateItemRequiresAdmin(t *testing.T) {
	tm := newTestMarket()

	_, err := tm.ledger.CreateItem(context.Background(), seller, baseURI, seller)
	assert.ErrorIs(t, err, market.ErrNotAuthorized)
}

func TestCreateItemZeroMintPriceIsFree(t *testing.T) {
	tm := newTestMarket()
	require.NoError(t, tm.ledger.SetMintPrice(admin, 0))
	before := tm.balance(admin)

	tm.mint(seller)

	assert.Equal(t, before, tm.balance(admin))
}

func TestGetStatusUnknownItem(t *testing.T) {
	tm := newTestMarket()

	_, err := tm.ledger.GetStatus(42)
	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestBurn(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)

	before := tm.ledger.TotalAmount()
	require.NoError(t, tm.ledger.Burn(ctx, admin, id))

	assert.Equal(t, before-1, tm.ledger.TotalAmount())

	status, err := tm.ledger.GetStatus(id)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusBurned, status)

	event, ok := tm.events.last()
	require.True(t, ok)
	assert.Equal(t, models.EventBurned, event.Type)
	assert.Equal(t, id, event.ItemID)
	assert.Equal(t, seller, event.Owner)
	assert.NotEmpty(t, event.EventID)
}

func TestBurnRequiresAdmin(t *testing.T) {
	tm := newTestMarket()
	id := tm.mint(seller)

	err := tm.ledger.Burn(context.Background(), seller, id)
	assert.ErrorIs(t, err, market.ErrNotAuthorized)
}

func TestBurnedItemCannotBeListedOrReburned(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.Burn(ctx, admin, id))

	assert.ErrorIs(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice), market.ErrAlreadyBurned)
	assert.ErrorIs(t, tm.ledger.ListItemOnAuction(ctx, seller, id, defaultPrice), market.ErrAlreadyBurned)
	assert.ErrorIs(t, tm.ledger.Burn(ctx, admin, id), market.ErrAlreadyBurned)
}

func TestBurnListedItemRejected(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	id := tm.mint(seller)
	require.NoError(t, tm.ledger.ListItem(ctx, seller, id, defaultPrice))

	assert.ErrorIs(t, tm.ledger.Burn(ctx, admin, id), market.ErrAlreadyListed)
}

func TestWithdrawTokens(t *testing.T) {
	tm := newTestMarket()
	ctx := context.Background()
	tm.mint(seller) // marketplace now holds the mint price

	before := tm.balance(admin)
	require.NoError(t, tm.ledger.WithdrawTokens(ctx, admin, admin, mintPrice))
	assert.Equal(t, before+mintPrice, tm.balance(admin))
	assert.Equal(t, uint64(0), tm.balance(self))
}

func TestWithdrawTokensRequiresAdmin(t *testing.T) {
	tm := newTestMarket()
	tm.mint(seller)

	err := tm.ledger.WithdrawTokens(context.Background(), seller, seller, mintPrice)
	assert.ErrorIs(t, err, market.ErrNotAuthorized)
}

func TestWithdrawTokensExceedingEscrow(t *testing.T) {
	tm := newTestMarket()
	tm.mint(seller)

	err := tm.ledger.WithdrawTokens(context.Background(), admin, admin, mintPrice+1)
	assert.ErrorIs(t, err, market.ErrInsufficientBalance)
}
