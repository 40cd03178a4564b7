package helpers

import "eventhive/internal/leaderboard"

// Request/Response DTOs
type CreateAuctionRequest struct {
	EventID         string  `json:"event_id" binding:"required"`
	ItemName        string  `json:"item_name" binding:"required"`
	ItemDescription string  `json:"item_description"`
	StartingBid     float64 `json:"starting_bid" binding:"required,gt=0"`
	BidIncrement    float64 `json:"bid_increment" binding:"required,gt=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
}

type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

type AuctionResponse struct {
	AuctionID         string  `json:"auction_id"`
	EventID           string  `json:"event_id"`
	ItemName          string  `json:"item_name"`
	ItemDescription   string  `json:"item_description"`
	StartingBid       float64 `json:"starting_bid"`
	BidIncrement      float64 `json:"bid_increment"`
	DurationMinutes   int     `json:"duration_minutes"`
	Status            string  `json:"status"`
	CurrentHighestBid float64 `json:"current_highest_bid"`
	TotalBids         int     `json:"total_bids"`
	CreatedAt         string  `json:"created_at"`
	EndTime           string  `json:"end_time"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

// PlaceBidResponse is returned on a successful bid.
type PlaceBidResponse struct {
	Bid         BidResponse             `json:"bid"`
	Auction     AuctionResponse         `json:"auction"`
	Leaderboard leaderboard.Leaderboard `json:"leaderboard"`
	ServerTime  string                  `json:"server_time"`
}

// AuctionViewResponse is the read-path payload.
type AuctionViewResponse struct {
	Auction     AuctionResponse         `json:"auction"`
	Leaderboard leaderboard.Leaderboard `json:"leaderboard"`
	ServerTime  string                  `json:"server_time"`
	EndTime     string                  `json:"end_time"`
}
