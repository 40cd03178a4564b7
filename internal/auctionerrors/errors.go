package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrUserNotFound    = errors.New("user not found")
	// ErrStoreConflict means the auction changed underneath an optimistic
	// write. Transient: callers may reload and retry.
	ErrStoreConflict = errors.New("auction changed concurrently")
	// ErrStatusConflict means a status transition observed a different
	// current status than expected. Callers treat it as "already handled".
	ErrStatusConflict = errors.New("auction status transition conflict")
)

// Business logic errors
var (
	ErrInvalidBid           = errors.New("invalid bid")
	ErrInvalidAuction       = errors.New("invalid auction terms")
	ErrAuctionNotActive     = errors.New("auction is not active")
	ErrAuctionEnded         = errors.New("auction has ended")
	ErrHostCannotBid        = errors.New("event hosts cannot bid on their own auctions")
	ErrConsecutiveBid       = errors.New("bidder already holds the highest bid")
	ErrBidTooLow            = errors.New("bid amount too low")
	ErrNotificationDelivery = errors.New("notification delivery failed")
)

// BidRejection carries the bidding context a rejected caller needs to retry
// with a valid amount. It wraps one of the business errors above so callers
// keep matching with errors.Is and extract the amounts with errors.As.
type BidRejection struct {
	Reason            error
	CurrentHighestBid float64
	MinimumNextBid    float64
}

func (r *BidRejection) Error() string {
	return fmt.Sprintf("%v (current highest %.2f, minimum next %.2f)",
		r.Reason, r.CurrentHighestBid, r.MinimumNextBid)
}

func (r *BidRejection) Unwrap() error {
	return r.Reason
}
