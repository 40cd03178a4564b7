package auction

import (
	"errors"
	"fmt"
	"time"

	"eventhive/internal/auctionerrors"
	"eventhive/internal/leaderboard"
	model "eventhive/internal/models"
	"eventhive/internal/repository"
	"eventhive/utils"
)

// Notifier receives committed state changes for fan-out. Implementations must
// be safe for concurrent use; failures are theirs to retry and never affect
// the committed bid or transition.
type Notifier interface {
	BidPlaced(auction model.Auction, event model.Event, bid model.Bid, lb leaderboard.Leaderboard)
	AuctionEnded(auction model.Auction, event model.Event, winner *model.Bid, lb leaderboard.Leaderboard)
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) BidPlaced(model.Auction, model.Event, model.Bid, leaderboard.Leaderboard) {}
func (NoopNotifier) AuctionEnded(model.Auction, model.Event, *model.Bid, leaderboard.Leaderboard) {
}

// AuctionService is the single authorized path for accepting bids and for
// moving auctions through their lifecycle.
type AuctionService struct {
	store    repository.AuctionStore
	events   repository.EventDirectory
	notifier Notifier

	rejectConsecutive bool
	startPending      bool

	now      func() time.Time
	dispatch func(fn func())
}

// Option configures an AuctionService.
type Option func(*AuctionService)

// WithNotifier attaches a notification fan-out.
func WithNotifier(n Notifier) Option {
	return func(s *AuctionService) { s.notifier = n }
}

// WithConsecutiveBidPolicy rejects a bid whose bidder already placed the
// immediately preceding bid when enabled.
func WithConsecutiveBidPolicy(reject bool) Option {
	return func(s *AuctionService) { s.rejectConsecutive = reject }
}

// WithPendingStart makes newly created auctions start in pending status
// instead of active.
func WithPendingStart(pending bool) Option {
	return func(s *AuctionService) { s.startPending = pending }
}

// WithClock overrides the service clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) { s.now = now }
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, events repository.EventDirectory, opts ...Option) *AuctionService {
	s := &AuctionService{
		store:    store,
		events:   events,
		notifier: NoopNotifier{},
		now:      time.Now,
		dispatch: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BidResult is returned to the caller of a successful PlaceBid.
type BidResult struct {
	Auction     model.Auction
	Bid         model.Bid
	Leaderboard leaderboard.Leaderboard
	ServerTime  time.Time
}

// AuctionView is the read-path snapshot of an auction.
type AuctionView struct {
	Auction     model.Auction
	Leaderboard leaderboard.Leaderboard
	ServerTime  time.Time
	EndTime     time.Time
}

// CreateAuctionParams are the immutable terms of a new auction.
type CreateAuctionParams struct {
	EventID         string
	ItemName        string
	ItemDescription string
	StartingBid     float64
	BidIncrement    float64
	DurationMinutes int
}

// CreateAuction validates the item terms and stores a new auction with an
// empty bid history.
func (s *AuctionService) CreateAuction(p CreateAuctionParams) (model.Auction, error) {
	if p.EventID == "" || p.ItemName == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing event ID or item name", auctionerrors.ErrInvalidAuction)
	}
	if p.StartingBid <= 0 || p.BidIncrement <= 0 {
		return model.Auction{}, fmt.Errorf("service: %w - starting bid and increment must be positive", auctionerrors.ErrInvalidAuction)
	}
	if p.DurationMinutes <= 0 {
		return model.Auction{}, fmt.Errorf("service: %w - duration must be positive", auctionerrors.ErrInvalidAuction)
	}

	if _, err := s.events.GetEvent(p.EventID); err != nil {
		return model.Auction{}, fmt.Errorf("service: create auction for event %s: %w", p.EventID, err)
	}

	status := model.StatusActive
	if s.startPending {
		status = model.StatusPending
	}

	auction := model.Auction{
		AuctionID:       utils.GenerateID(),
		EventID:         p.EventID,
		ItemName:        p.ItemName,
		ItemDescription: p.ItemDescription,
		StartingBid:     p.StartingBid,
		BidIncrement:    p.BidIncrement,
		DurationMinutes: p.DurationMinutes,
		Status:          status,
		CreatedAt:       s.now().UTC(),
	}

	created, err := s.store.CreateAuction(auction)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return created, nil
}

// ActivateAuction moves a pending auction to active so bidding can begin.
func (s *AuctionService) ActivateAuction(auctionID string) (model.Auction, error) {
	a, err := s.store.TransitionStatus(auctionID, model.StatusPending, model.StatusActive)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to activate auction %s: %w", auctionID, err)
	}
	return a, nil
}

// PlaceBid validates and commits a single bid. Validation runs against a
// snapshot; a concurrent commit raising the floor is detected by the store's
// version check and revalidated once before the bid is rejected.
func (s *AuctionService) PlaceBid(auctionID, bidderID string, amount float64) (BidResult, error) {
	if auctionID == "" || bidderID == "" {
		return BidResult{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return BidResult{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return BidResult{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	ev, err := s.events.GetEvent(a.EventID)
	if err != nil {
		return BidResult{}, fmt.Errorf("service: failed to load event %s for auction %s: %w", a.EventID, auctionID, err)
	}

	var committed model.Auction
	for attempt := 0; ; attempt++ {
		if err := s.admissible(a, ev, bidderID, amount); err != nil {
			return BidResult{}, err
		}

		bid := model.Bid{
			BidID:    utils.GenerateID(),
			BidderID: bidderID,
			Amount:   amount,
		}

		committed, err = s.store.AppendBid(auctionID, bid, a.Version)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, auctionerrors.ErrAuctionEnded):
			// The boundary was crossed between validation and commit.
			// Finish the auction and reject deterministically.
			s.finish(a)
			return BidResult{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
		case errors.Is(err, auctionerrors.ErrAuctionNotActive):
			return BidResult{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotActive)
		case errors.Is(err, auctionerrors.ErrStoreConflict) && attempt == 0:
			// Another bid committed concurrently. Reload and revalidate
			// once against the new floor.
			a, err = s.store.GetAuction(auctionID)
			if err != nil {
				return BidResult{}, fmt.Errorf("service: failed to reload auction %s: %w", auctionID, err)
			}
		case errors.Is(err, auctionerrors.ErrStoreConflict):
			return BidResult{}, fmt.Errorf("service: bid on auction %s not committed after retry: %w", auctionID, auctionerrors.ErrStoreConflict)
		default:
			return BidResult{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
		}
	}

	// Everything past the commit is best-effort and never rolls it back.
	if err := s.store.AddParticipant(bidderID, auctionID); err != nil {
		utils.Warn("service: failed to record participant", map[string]any{
			"auction_id": auctionID,
			"user_id":    bidderID,
			"error":      err.Error(),
		})
	}

	bid, _ := committed.LastBid()
	lb := leaderboard.Compute(committed.Bids, committed.StartingBid, committed.BidIncrement, committed.CurrentHighestBid)
	s.dispatch(func() { s.notifier.BidPlaced(committed, ev, bid, lb) })

	return BidResult{
		Auction:     committed,
		Bid:         bid,
		Leaderboard: lb,
		ServerTime:  s.now().UTC(),
	}, nil
}

// admissible applies the synchronous rejection rules against a snapshot.
func (s *AuctionService) admissible(a model.Auction, ev model.Event, bidderID string, amount float64) error {
	if a.Status != model.StatusActive {
		return fmt.Errorf("service: auction %s is %s: %w", a.AuctionID, a.Status, auctionerrors.ErrAuctionNotActive)
	}

	if !s.now().Before(a.EndTime()) {
		s.finish(a)
		return fmt.Errorf("service: auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionEnded)
	}

	if bidderID == ev.HostID {
		return fmt.Errorf("service: user %s hosts event %s: %w", bidderID, ev.EventID, auctionerrors.ErrHostCannotBid)
	}

	if s.rejectConsecutive {
		if last, ok := a.LastBid(); ok && last.BidderID == bidderID {
			return fmt.Errorf("service: user %s placed the previous bid: %w", bidderID, auctionerrors.ErrConsecutiveBid)
		}
	}

	minimum := leaderboard.MinimumNextBid(a.StartingBid, a.BidIncrement, a.CurrentHighestBid)
	if amount < minimum {
		return &auctionerrors.BidRejection{
			Reason:            auctionerrors.ErrBidTooLow,
			CurrentHighestBid: a.CurrentHighestBid,
			MinimumNextBid:    minimum,
		}
	}

	return nil
}

// GetAuction returns a snapshot with its leaderboard. Reading is also a
// lifecycle trigger: an active auction past its end time is finished here.
func (s *AuctionService) GetAuction(auctionID string) (AuctionView, error) {
	if auctionID == "" {
		return AuctionView{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return AuctionView{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}

	if a.Status == model.StatusActive && !s.now().Before(a.EndTime()) {
		if finished, ok := s.finish(a); ok {
			a = finished
		} else if a, err = s.store.GetAuction(auctionID); err != nil {
			return AuctionView{}, fmt.Errorf("service: failed to reload auction %s: %w", auctionID, err)
		}
	}

	return AuctionView{
		Auction:     a,
		Leaderboard: leaderboard.Compute(a.Bids, a.StartingBid, a.BidIncrement, a.CurrentHighestBid),
		ServerTime:  s.now().UTC(),
		EndTime:     a.EndTime(),
	}, nil
}

// FinishIfExpired applies the active -> finished transition when the end time
// has passed. Level-triggered: any caller may attempt it, the store's
// compare-and-swap guarantees only one attempt applies. Returns true when
// this call performed the transition.
func (s *AuctionService) FinishIfExpired(auctionID string) (bool, error) {
	a, err := s.store.GetAuction(auctionID)
	if err != nil {
		return false, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if a.Status != model.StatusActive || s.now().Before(a.EndTime()) {
		return false, nil
	}
	_, ok := s.finish(a)
	return ok, nil
}

// finish performs the terminal transition and emits the end-of-auction
// notification batch. A status conflict means another caller already finished
// the auction; nothing further happens.
func (s *AuctionService) finish(a model.Auction) (model.Auction, bool) {
	finished, err := s.store.TransitionStatus(a.AuctionID, model.StatusActive, model.StatusFinished)
	if err != nil {
		if !errors.Is(err, auctionerrors.ErrStatusConflict) {
			utils.Error("service: failed to finish auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
		}
		return model.Auction{}, false
	}

	ev, err := s.events.GetEvent(finished.EventID)
	if err != nil {
		utils.Warn("service: event lookup failed for finished auction", map[string]any{
			"auction_id": finished.AuctionID,
			"event_id":   finished.EventID,
			"error":      err.Error(),
		})
	}

	var winner *model.Bid
	if wb, ok := finished.WinningBid(); ok {
		winner = &wb
	}

	lb := leaderboard.Compute(finished.Bids, finished.StartingBid, finished.BidIncrement, finished.CurrentHighestBid)
	s.dispatch(func() { s.notifier.AuctionEnded(finished, ev, winner, lb) })

	utils.Info("service: auction finished", map[string]any{
		"auction_id": finished.AuctionID,
		"total_bids": len(finished.Bids),
		"has_winner": winner != nil,
	})
	return finished, true
}

// ParticipatedAuctions returns all auctions a user has placed bids on.
func (s *AuctionService) ParticipatedAuctions(userID string) ([]model.Auction, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	auctions, err := s.store.ParticipatedAuctions(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for user %s: %w", userID, err)
	}
	return auctions, nil
}
