// Package leaderboard turns an auction's bid history into ranked standings.
// Compute is a pure function: no I/O, no side effects, deterministic for a
// given bid list.
package leaderboard

import (
	"sort"
	"time"

	model "eventhive/internal/models"
)

// topBidCount is how many ranked bids the leaderboard exposes.
const topBidCount = 5

// RankedBid is one row of the leaderboard.
type RankedBid struct {
	Rank      int       `json:"rank"`
	Amount    float64   `json:"amount"`
	BidderID  string    `json:"bidder_id"`
	Timestamp time.Time `json:"timestamp"`
	IsWinning bool      `json:"is_winning"`
}

// Leaderboard is the derived ranking for one auction. It is recomputed after
// every committed bid and lifecycle transition, never cached across mutations.
type Leaderboard struct {
	TopBids           []RankedBid `json:"top_bids"`
	TotalBids         int         `json:"total_bids"`
	UniqueBidders     int         `json:"unique_bidders"`
	CurrentLeader     string      `json:"current_leader"`
	CurrentHighestBid float64     `json:"current_highest_bid"`
	MinimumNextBid    float64     `json:"minimum_next_bid"`
}

// MinimumNextBid returns the smallest acceptable bid for the given terms.
func MinimumNextBid(startingBid, bidIncrement, currentHighestBid float64) float64 {
	if next := currentHighestBid + bidIncrement; next > startingBid {
		return next
	}
	return startingBid
}

// Compute builds the leaderboard from a bid history. Bids are ranked by
// amount descending; equal amounts (impossible under the increment rule, but
// tolerated) rank by earliest timestamp.
func Compute(bids []model.Bid, startingBid, bidIncrement, currentHighestBid float64) Leaderboard {
	if len(bids) == 0 {
		return Leaderboard{
			TopBids:        []RankedBid{},
			MinimumNextBid: startingBid,
		}
	}

	sorted := append([]model.Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	top := make([]RankedBid, 0, topBidCount)
	for i, b := range sorted {
		if i == topBidCount {
			break
		}
		top = append(top, RankedBid{
			Rank:      i + 1,
			Amount:    b.Amount,
			BidderID:  b.BidderID,
			Timestamp: b.CreatedAt,
			IsWinning: i == 0,
		})
	}

	bidders := make(map[string]struct{}, len(bids))
	for _, b := range bids {
		bidders[b.BidderID] = struct{}{}
	}

	return Leaderboard{
		TopBids:           top,
		TotalBids:         len(bids),
		UniqueBidders:     len(bidders),
		CurrentLeader:     sorted[0].BidderID,
		CurrentHighestBid: currentHighestBid,
		MinimumNextBid:    MinimumNextBid(startingBid, bidIncrement, currentHighestBid),
	}
}
