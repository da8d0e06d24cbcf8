package market

import "errors"

// Every precondition violation aborts the whole operation with one of these
// sentinel errors and no partial state change. The caller must resubmit.
var (
	// ErrNotAuthorized means the caller lacks the required role or ownership.
	ErrNotAuthorized = errors.New("caller is not authorized for this operation")

	// ErrNotFound means the item id is unknown to the marketplace.
	ErrNotFound = errors.New("item not found")

	// ErrAlreadyListed means the item is already on sale or on auction.
	ErrAlreadyListed = errors.New("item has already been put up for sale or auction")

	// ErrAlreadyBurned means the item has been destroyed. BURNED is terminal.
	ErrAlreadyBurned = errors.New("item has already been burned")

	// ErrNotOnSale means the operation requires a live sale order that doesn't exist.
	ErrNotOnSale = errors.New("item is not on sale")

	// ErrAuctionNotActive means the operation requires a live auction order.
	ErrAuctionNotActive = errors.New("auction is not active")

	// ErrBidTooLow means the bid does not exceed the current bid plus the
	// minimal bid amount.
	ErrBidTooLow = errors.New("bid is less than or equal to the current bid")

	// ErrAuctionNotComplete means the auction duration has not elapsed yet.
	ErrAuctionNotComplete = errors.New("auction duration not completed")

	// ErrCannotCancel means the auction already has an escrowed bid and can
	// only be resolved by finishing it.
	ErrCannotCancel = errors.New("auction with bids cannot be cancelled")

	// ErrInvalidPrice means a listing price or start price of zero.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrInsufficientBalance is surfaced from the payment rail.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is surfaced from the payment rail.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
)
