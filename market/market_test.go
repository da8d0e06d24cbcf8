package market_test

import (
	"context"
	"sync"
	"time"

	"github.com/aaronwang/nft-marketplace/adapters/mem"
	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

const (
	admin  = models.Identity("admin")
	seller = models.Identity("seller")
	buyer  = models.Identity("buyer")
	bidder = models.Identity("bidder")
	self   = models.Identity("marketplace")

	mintPrice    = uint64(100)
	auctionTime  = 100 * time.Second
	minBidAmount = uint64(2)
	defaultPrice = uint64(500)
	supply       = uint64(500000)

	baseURI = "ipfs://pepega/1"
)

// eventCollector records emitted events for assertions.
type eventCollector struct {
	mu     sync.Mutex
	events []models.MarketEvent
}

func (c *eventCollector) Emit(event models.MarketEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) all() []models.MarketEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.MarketEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *eventCollector) last() (models.MarketEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return models.MarketEvent{}, false
	}
	return c.events[len(c.events)-1], true
}

// testMarket wires a ledger to in-memory collaborators with a controllable
// clock.
type testMarket struct {
	ledger *market.Ledger
	pay    *mem.TokenLedger
	nft    *mem.AssetRegistry
	events *eventCollector

	mu  sync.Mutex
	now time.Time
}

func newTestMarket() *testMarket {
	tm := &testMarket{
		pay:    mem.NewTokenLedger(),
		nft:    mem.NewAssetRegistry(),
		events: &eventCollector{},
		now:    time.Unix(1_700_000_000, 0),
	}

	tm.ledger = market.NewLedger(market.Config{
		Self:            self,
		Admin:           admin,
		MintPrice:       mintPrice,
		AuctionDuration: auctionTime,
		MinBidAmount:    minBidAmount,
	})
	tm.ledger.SetClock(tm.clock)
	tm.ledger.SetEventSink(tm.events)

	ctx := context.Background()
	if err := tm.ledger.SetPaymentRail(admin, tm.pay); err != nil {
		panic(err)
	}
	if err := tm.ledger.SetAssetRegistry(admin, tm.nft); err != nil {
		panic(err)
	}

	// The admin funds mints; sellers give the marketplace its standing
	// approval to move assets on their behalf.
	tm.pay.Credit(admin, supply)
	tm.pay.Approve(ctx, admin, self, supply)
	for _, id := range []models.Identity{admin, seller, buyer, bidder} {
		tm.nft.SetApprovalForAll(ctx, id, self, true)
	}

	return tm
}

func (tm *testMarket) clock() time.Time {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.now
}

func (tm *testMarket) advance(d time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.now = tm.now.Add(d)
}

// fund credits an identity and approves the marketplace to spend it.
func (tm *testMarket) fund(id models.Identity, amount uint64) {
	tm.pay.Credit(id, amount)
	tm.pay.Approve(context.Background(), id, self, amount)
}

// mint creates an item owned by the given identity and returns its id.
func (tm *testMarket) mint(owner models.Identity) uint64 {
	item, err := tm.ledger.CreateItem(context.Background(), admin, baseURI, owner)
	if err != nil {
		panic(err)
	}
	return item.ID
}

func (tm *testMarket) balance(id models.Identity) uint64 {
	bal, err := tm.pay.BalanceOf(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return bal
}
