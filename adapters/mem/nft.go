package mem

import (
	"context"
	"sync"

	"github.com/aaronwang/nft-marketplace/market"
	"github.com/aaronwang/nft-marketplace/models"
)

type approvalKey struct {
	owner    models.Identity
	operator models.Identity
}

// AssetRegistry is an in-memory ownership ledger for uniquely identified
// assets, with operator approvals and authority-gated mint/burn. IDs are
// allocated sequentially starting at 1.
type AssetRegistry struct {
	mu        sync.Mutex
	owners    map[uint64]models.Identity
	uris      map[uint64]string
	approvals map[approvalKey]bool
	nextID    uint64
}

// NewAssetRegistry creates an empty asset registry.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		owners:    make(map[uint64]models.Identity),
		uris:      make(map[uint64]string),
		approvals: make(map[approvalKey]bool),
		nextID:    1,
	}
}

// OwnerOf returns the owner of an asset.
func (r *AssetRegistry) OwnerOf(_ context.Context, id uint64) (models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return models.ZeroIdentity, market.ErrNotFound
	}
	return owner, nil
}

// TransferFrom moves an asset. The operator must be the owner or hold a
// standing approval from the owner.
func (r *AssetRegistry) TransferFrom(_ context.Context, operator, from, to models.Identity, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[id]
	if !ok {
		return market.ErrNotFound
	}
	if owner != from {
		return market.ErrNotAuthorized
	}
	if operator != owner && !r.approvals[approvalKey{owner: owner, operator: operator}] {
		return market.ErrNotAuthorized
	}
	r.owners[id] = to
	return nil
}

// SetApprovalForAll grants or revokes an operator's right to move all of the
// owner's assets.
func (r *AssetRegistry) SetApprovalForAll(_ context.Context, owner, operator models.Identity, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals[approvalKey{owner: owner, operator: operator}] = approved
	return nil
}

// Mint creates a new asset and returns its id.
func (r *AssetRegistry) Mint(_ context.Context, to models.Identity, uri string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.owners[id] = to
	r.uris[id] = uri
	return id, nil
}

// Burn destroys an asset.
func (r *AssetRegistry) Burn(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[id]; !ok {
		return market.ErrNotFound
	}
	delete(r.owners, id)
	delete(r.uris, id)
	return nil
}
