package market

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aaronwang/nft-marketplace/models"
)

// Ledger is the marketplace book of record: the item status table, the sale
// book, the auction engine, and the treasury, all behind one mutex.
//
// Every operation runs serialized and all-or-nothing. Fallible collaborator
// calls happen before any state commit, and when a later call fails the
// earlier fund movement is unwound, so a returned error always means no
// state change. The operation mutex also means a collaborator cannot
// re-enter the ledger mid-operation.
type Ledger struct {
	mu sync.Mutex

	// self is the identity under which the marketplace escrows funds and
	// operates on the asset registry.
	self  models.Identity
	admin models.Identity

	mintPrice       uint64
	auctionDuration time.Duration
	minBidAmount    uint64

	pay PaymentRail
	nft AssetRegistry

	items    map[uint64]*models.Item
	sales    map[uint64]*models.SaleOrder
	auctions map[uint64]*models.AuctionOrder

	totalAmount uint64
	itemsSold   uint64

	sink EventSink
	now  func() time.Time
}

// Config holds the constructor parameters of the marketplace.
type Config struct {
	// Self is the marketplace's own identity on the payment rail and asset
	// registry.
	Self models.Identity
	// Admin is the single administrative identity.
	Admin models.Identity

	MintPrice       uint64
	AuctionDuration time.Duration
	MinBidAmount    uint64
}

// NewLedger creates an empty marketplace ledger. The payment rail and asset
// registry are bound afterwards via SetPaymentRail and SetAssetRegistry,
// mirroring the deploy-then-wire lifecycle of the configuration surface.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		self:            cfg.Self,
		admin:           cfg.Admin,
		mintPrice:       cfg.MintPrice,
		auctionDuration: cfg.AuctionDuration,
		minBidAmount:    cfg.MinBidAmount,
		items:           make(map[uint64]*models.Item),
		sales:           make(map[uint64]*models.SaleOrder),
		auctions:        make(map[uint64]*models.AuctionOrder),
		now:             time.Now,
	}
}

// SetEventSink installs the sink receiving committed marketplace events.
func (l *Ledger) SetEventSink(sink EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// SetClock overrides the time source. Intended for tests.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Self returns the marketplace's own identity.
func (l *Ledger) Self() models.Identity { return l.self }

// Admin returns the administrative identity.
func (l *Ledger) Admin() models.Identity { return l.admin }

// SetPaymentRail binds the fungible-token collaborator. Admin only.
func (l *Ledger) SetPaymentRail(caller models.Identity, pay PaymentRail) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.admin {
		return ErrNotAuthorized
	}
	l.pay = pay
	return nil
}

// PaymentRail returns the bound payment rail.
func (l *Ledger) PaymentRail() PaymentRail {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pay
}

// SetAssetRegistry binds the collectible-asset collaborator. Admin only.
func (l *Ledger) SetAssetRegistry(caller models.Identity, nft AssetRegistry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.admin {
		return ErrNotAuthorized
	}
	l.nft = nft
	return nil
}

// AssetRegistry returns the bound asset registry.
func (l *Ledger) AssetRegistry() AssetRegistry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nft
}

// SetMintPrice replaces the mint price. Admin only.
func (l *Ledger) SetMintPrice(caller models.Identity, price uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.admin {
		return ErrNotAuthorized
	}
	l.mintPrice = price
	return nil
}

// MintPrice returns the configured mint price.
func (l *Ledger) MintPrice() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mintPrice
}

// SetAuctionDuration replaces the minimum auction duration. Admin only.
func (l *Ledger) SetAuctionDuration(caller models.Identity, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.admin {
		return ErrNotAuthorized
	}
	l.auctionDuration = d
	return nil
}

// AuctionDuration returns the configured minimum auction duration.
func (l *Ledger) AuctionDuration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.auctionDuration
}

// SetMinBidAmount replaces the minimal bid increment. Admin only.
func (l *Ledger) SetMinBidAmount(caller models.Identity, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.admin {
		return ErrNotAuthorized
	}
	l.minBidAmount = amount
	return nil
}

// MinBidAmount returns the configured minimal bid increment.
func (l *Ledger) MinBidAmount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minBidAmount
}

// TotalAmount returns the number of items minted minus burned.
func (l *Ledger) TotalAmount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalAmount
}

// ItemsSold returns the number of completed sales plus successful auctions.
func (l *Ledger) ItemsSold() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.itemsSold
}

// GetStatus returns the marketplace status of an item.
func (l *Ledger) GetStatus(id uint64) (models.ItemStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[id]
	if !ok {
		return 0, ErrNotFound
	}
	return item.Status, nil
}

// GetItem returns a copy of the item record.
func (l *Ledger) GetItem(id uint64) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

// GetSaleOrder returns a copy of the sale order for an item, live or not.
func (l *Ledger) GetSaleOrder(id uint64) (*models.SaleOrder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

// GetAuctionOrder returns a copy of the auction order for an item, live or not.
func (l *Ledger) GetAuctionOrder(id uint64) (*models.AuctionOrder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.auctions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

// CreateItem mints a new item to the given owner. Admin only. When a mint
// price is configured it is pulled from the caller, so the caller must hold
// an allowance for the marketplace on the payment rail.
func (l *Ledger) CreateItem(ctx context.Context, caller models.Identity, uri string, owner models.Identity) (*models.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return nil, ErrNotAuthorized
	}

	if l.mintPrice > 0 {
		if err := l.pay.TransferFrom(ctx, l.self, caller, l.self, l.mintPrice); err != nil {
			return nil, err
		}
	}

	id, err := l.nft.Mint(ctx, owner, uri)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:     id,
		Owner:  owner,
		Status: models.ItemStatusActive,
		URI:    uri,
	}
	l.items[id] = item
	l.totalAmount++

	cp := *item
	return &cp, nil
}

// Burn destroys an item. Admin only; BURNED is terminal and listed items
// must be delisted first so no live order is orphaned.
func (l *Ledger) Burn(ctx context.Context, caller models.Identity, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrNotAuthorized
	}
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

	if err := l.nft.Burn(ctx, id); err != nil {
		return err
	}

	item.Status = models.ItemStatusBurned
	l.totalAmount--

	l.emit(models.MarketEvent{
		Type:      models.EventBurned,
		ItemID:    id,
		Owner:     item.Owner,
		Timestamp: l.now(),
	})
	return nil
}

// WithdrawTokens moves accumulated marketplace funds to the given identity.
// Admin only.
func (l *Ledger) WithdrawTokens(ctx context.Context, caller models.Identity, to models.Identity, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrNotAuthorized
	}
	return l.pay.Transfer(ctx, l.self, to, amount)
}

// emit stamps and delivers an event. Must be called with the mutex held,
// after the state transition has committed.
func (l *Ledger) emit(event models.MarketEvent) {
	if l.sink == nil {
		return
	}
	event.EventID = uuid.New().String()
	l.sink.Emit(event)
}
