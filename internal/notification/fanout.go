package notification

import (
	"fmt"
	"time"

	"eventhive/internal/leaderboard"
	model "eventhive/internal/models"
	"eventhive/internal/repository"
	"eventhive/utils"
)

// FanOut wires committed auction changes into the two delivery channels: the
// live broadcast hub and the durable mail queue. It is the only consumer of
// user contact data.
type FanOut struct {
	hub   *Hub
	queue *MailQueue
	users repository.UserDirectory
}

// NewFanOut creates a new FanOut instance
func NewFanOut(hub *Hub, queue *MailQueue, users repository.UserDirectory) *FanOut {
	return &FanOut{hub: hub, queue: queue, users: users}
}

// BidPlaced broadcasts the new leaderboard and queues the bid emails.
func (f *FanOut) BidPlaced(a model.Auction, ev model.Event, bid model.Bid, lb leaderboard.Leaderboard) {
	f.broadcast(a, ev, lb, UpdateBid)

	if ev.HostEmail != "" {
		f.queue.Enqueue(Job{
			Recipient: ev.HostEmail,
			Subject:   fmt.Sprintf("New Bid on %s", a.ItemName),
			Body:      newBidBody(a, bid),
			Type:      TypeNewBid,
		})
	}

	bidder, err := f.users.GetUser(bid.BidderID)
	if err != nil || bidder.Email == "" {
		utils.Warn("fanout: bidder email not found", map[string]any{
			"auction_id": a.AuctionID,
			"user_id":    bid.BidderID,
		})
		return
	}
	f.queue.Enqueue(Job{
		Recipient: bidder.Email,
		Subject:   fmt.Sprintf("Bid Confirmation - %s", a.ItemName),
		Body:      bidConfirmationBody(a, bid),
		Type:      TypeBidConfirmation,
	})
}

// AuctionEnded broadcasts the terminal leaderboard and queues exactly one
// end-of-auction batch: winner + host emails when there are bids, a no-bids
// host email otherwise.
func (f *FanOut) AuctionEnded(a model.Auction, ev model.Event, winner *model.Bid, lb leaderboard.Leaderboard) {
	f.broadcast(a, ev, lb, UpdateAuctionEnded)

	if winner == nil {
		if ev.HostEmail != "" {
			f.queue.Enqueue(Job{
				Recipient: ev.HostEmail,
				Subject:   fmt.Sprintf("Auction Ended - %s", a.ItemName),
				Body:      noBidsBody(a),
				Type:      TypeAuctionEndedNoBids,
				Priority:  1,
			})
		}
		return
	}

	winnerContact := ""
	winnerUser, err := f.users.GetUser(winner.BidderID)
	if err != nil || winnerUser.Email == "" {
		utils.Warn("fanout: winner email not found", map[string]any{
			"auction_id": a.AuctionID,
			"user_id":    winner.BidderID,
		})
	} else {
		winnerContact = winnerUser.Email
		f.queue.Enqueue(Job{
			Recipient: winnerContact,
			Subject:   fmt.Sprintf("Auction Won - %s", a.ItemName),
			Body:      auctionWonBody(a, *winner),
			Type:      TypeAuctionWon,
			Priority:  1,
		})
	}

	if ev.HostEmail != "" {
		f.queue.Enqueue(Job{
			Recipient: ev.HostEmail,
			Subject:   fmt.Sprintf("Auction Ended - %s", a.ItemName),
			Body:      auctionEndedHostBody(a, *winner, winnerContact),
			Type:      TypeAuctionEndedWithWinner,
			Priority:  1,
		})
	}
}

func (f *FanOut) broadcast(a model.Auction, ev model.Event, lb leaderboard.Leaderboard, updateType string) {
	update := NewLeaderboardUpdate(a, lb, updateType)
	f.hub.Publish(AuctionTopic(a.AuctionID), update)
	f.hub.Publish(EventTopic(ev.EventID), EventAuctionUpdate{
		ItemName:          a.ItemName,
		LeaderboardUpdate: update,
	})
}

func bidConfirmationBody(a model.Auction, bid model.Bid) string {
	return fmt.Sprintf(`<h2>Bid Confirmation</h2>
<p>Your bid has been successfully placed!</p>
<p>Item: %s</p>
<p>Your Bid: $%.2f</p>
<p>Time: %s</p>
<p>Auction End Time: %s</p>`,
		a.ItemName, bid.Amount, formatTime(bid.CreatedAt), formatTime(a.EndTime()))
}

func newBidBody(a model.Auction, bid model.Bid) string {
	return fmt.Sprintf(`<h2>New Bid Placed!</h2>
<p>A new bid has been placed on your auction item "%s"</p>
<p>Bid Amount: $%.2f</p>
<p>Time: %s</p>
<p>Auction End Time: %s</p>`,
		a.ItemName, bid.Amount, formatTime(bid.CreatedAt), formatTime(a.EndTime()))
}

func auctionWonBody(a model.Auction, winning model.Bid) string {
	return fmt.Sprintf(`<h2>Congratulations! You've Won the Auction!</h2>
<p>You are the winning bidder for "%s"</p>
<p>Winning Bid: $%.2f</p>
<p>Auction End Time: %s</p>
<p>The event host will contact you soon with further details.</p>`,
		a.ItemName, winning.Amount, formatTime(a.EndTime()))
}

func auctionEndedHostBody(a model.Auction, winning model.Bid, winnerContact string) string {
	return fmt.Sprintf(`<h2>Your Auction Has Ended!</h2>
<p>The auction for "%s" has ended.</p>
<p>Winning Bid: $%.2f</p>
<p>Winner Email: %s</p>
<p>Please contact the winner to arrange delivery/payment.</p>`,
		a.ItemName, winning.Amount, winnerContact)
}

func noBidsBody(a model.Auction) string {
	return fmt.Sprintf(`<h2>Your Auction Has Ended</h2>
<p>The auction for "%s" has ended.</p>
<p>Unfortunately, no bids were placed on this item.</p>
<p>End Time: %s</p>`,
		a.ItemName, formatTime(a.EndTime()))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}
