package models

import "time"

// AuctionStatus is the lifecycle state of an auction. It only ever moves
// forward: pending -> active -> finished.
type AuctionStatus string

const (
	StatusPending  AuctionStatus = "pending"
	StatusActive   AuctionStatus = "active"
	StatusFinished AuctionStatus = "finished"
)

// User represents a participant in the auction system
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Event is the external entity an auction belongs to. Only the fields the
// bidding engine needs (host identity and contact, display title) are kept.
type Event struct {
	EventID   string `json:"event_id"`
	Title     string `json:"title"`
	HostID    string `json:"host_id"`
	HostEmail string `json:"host_email"`
}

// Bid is a single committed bid. Bids are immutable once appended and their
// CreatedAt is server-assigned, strictly increasing within one auction.
type Bid struct {
	BidID     string    `json:"bid_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Auction is a timed competition for one sponsorship item.
type Auction struct {
	AuctionID       string  `json:"auction_id"`
	EventID         string  `json:"event_id"`
	ItemName        string  `json:"item_name"`
	ItemDescription string  `json:"item_description"`
	StartingBid     float64 `json:"starting_bid"`
	BidIncrement    float64 `json:"bid_increment"`
	// DurationMinutes is the auction length in minutes from CreatedAt.
	DurationMinutes   int           `json:"duration_minutes"`
	Status            AuctionStatus `json:"status"`
	CurrentHighestBid float64       `json:"current_highest_bid"`
	Bids              []Bid         `json:"bids"`
	CreatedAt         time.Time     `json:"created_at"`
	// Version increments on every committed mutation; used for optimistic
	// concurrency checks in the store.
	Version uint64 `json:"-"`
}

// EndTime derives the moment bidding closes.
func (a Auction) EndTime() time.Time {
	return a.CreatedAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// LastBid returns the most recently committed bid, or false if there is none.
func (a Auction) LastBid() (Bid, bool) {
	if len(a.Bids) == 0 {
		return Bid{}, false
	}
	return a.Bids[len(a.Bids)-1], true
}

// WinningBid returns the highest committed bid. Under the increment rule the
// highest bid is always the last one, but this does not rely on that.
func (a Auction) WinningBid() (Bid, bool) {
	if len(a.Bids) == 0 {
		return Bid{}, false
	}
	winning := a.Bids[0]
	for _, b := range a.Bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}
