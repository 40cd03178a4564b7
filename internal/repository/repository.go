package repository

import (
	"fmt"
	"sync"
	"time"

	"eventhive/internal/auctionerrors"
	model "eventhive/internal/models"
)

// AuctionStore defines the durable storage contract for auction aggregates.
// Implementations must serialize concurrent writes per auction and keep
// "append bid and update highest bid" atomic.
type AuctionStore interface {
	CreateAuction(auction model.Auction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	// AppendBid commits a bid against the version the caller validated. It
	// fails with ErrStoreConflict when the auction changed underneath, and
	// refuses commits at or past the auction end time.
	AppendBid(auctionID string, bid model.Bid, expectedVersion uint64) (model.Auction, error)
	// TransitionStatus applies a compare-and-swap status change so that
	// concurrent lifecycle checks cannot both apply the same transition.
	TransitionStatus(auctionID string, expected, next model.AuctionStatus) (model.Auction, error)
	ListByStatus(status model.AuctionStatus) ([]model.Auction, error)
	// AddParticipant records that a user has bid on an auction. Idempotent.
	AddParticipant(userID, auctionID string) error
	ParticipatedAuctions(userID string) ([]model.Auction, error)
}

// EventDirectory supplies event/host metadata owned by the Event collaborator.
type EventDirectory interface {
	GetEvent(eventID string) (model.Event, error)
}

// UserDirectory supplies user contact details for notification text.
type UserDirectory interface {
	GetUser(userID string) (model.User, error)
}

// auctionEntry pairs an auction with its own mutex so writes on one auction
// never block writes on another.
type auctionEntry struct {
	mu      sync.Mutex
	auction model.Auction
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore,
// EventDirectory and UserDirectory.
type MemoryStore struct {
	mu           sync.RWMutex
	auctions     map[string]*auctionEntry
	events       map[string]model.Event
	users        map[string]model.User
	participants map[string]map[string]struct{} // userID -> set of auctionIDs

	now func() time.Time
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:     make(map[string]*auctionEntry),
		events:       make(map[string]model.Event),
		users:        make(map[string]model.User),
		participants: make(map[string]map[string]struct{}),
		now:          time.Now,
	}
}

// SetClock overrides the store clock. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) entry(auctionID string) (*auctionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return e, nil
}

// CreateAuction stores a new auction aggregate with an empty bid history.
func (s *MemoryStore) CreateAuction(auction model.Auction) (model.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.auctions[auction.AuctionID]; exists {
		return model.Auction{}, fmt.Errorf("auction %s already exists: %w", auction.AuctionID, auctionerrors.ErrStoreConflict)
	}

	auction.Bids = nil
	auction.CurrentHighestBid = 0
	auction.Version = 1
	s.auctions[auction.AuctionID] = &auctionEntry{auction: auction}
	return cloneAuction(auction), nil
}

// GetAuction returns a consistent snapshot of an auction.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAuction(e.auction), nil
}

// AppendBid durably records a bid and updates the highest bid in one step.
// The bid timestamp is finalized under the per-auction lock so timestamps are
// strictly increasing within an auction.
func (s *MemoryStore) AppendBid(auctionID string, bid model.Bid, expectedVersion uint64) (model.Auction, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return model.Auction{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.auction
	if a.Version != expectedVersion {
		return model.Auction{}, fmt.Errorf("append bid for auction %s: version %d != %d: %w",
			auctionID, a.Version, expectedVersion, auctionerrors.ErrStoreConflict)
	}
	if a.Status != model.StatusActive {
		return model.Auction{}, fmt.Errorf("append bid for auction %s: status %s: %w",
			auctionID, a.Status, auctionerrors.ErrAuctionNotActive)
	}

	now := s.now().UTC()
	if !now.Before(a.EndTime()) {
		return model.Auction{}, fmt.Errorf("append bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionEnded)
	}

	bid.CreatedAt = now
	if last, ok := a.LastBid(); ok && !bid.CreatedAt.After(last.CreatedAt) {
		bid.CreatedAt = last.CreatedAt.Add(time.Nanosecond)
	}

	a.Bids = append(a.Bids, bid)
	if bid.Amount > a.CurrentHighestBid {
		a.CurrentHighestBid = bid.Amount
	}
	a.Version++

	return cloneAuction(*a), nil
}

// TransitionStatus moves an auction to the next status only if it still has
// the expected one. A conflict means another caller already handled it.
func (s *MemoryStore) TransitionStatus(auctionID string, expected, next model.AuctionStatus) (model.Auction, error) {
	e, err := s.entry(auctionID)
	if err != nil {
		return model.Auction{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.auction
	if a.Status != expected {
		return model.Auction{}, fmt.Errorf("transition auction %s from %s: currently %s: %w",
			auctionID, expected, a.Status, auctionerrors.ErrStatusConflict)
	}

	a.Status = next
	a.Version++
	return cloneAuction(*a), nil
}

// ListByStatus returns snapshots of all auctions currently in the given status.
func (s *MemoryStore) ListByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	s.mu.RLock()
	entries := make([]*auctionEntry, 0, len(s.auctions))
	for _, e := range s.auctions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.auction.Status == status {
			auctions = append(auctions, cloneAuction(e.auction))
		}
		e.mu.Unlock()
	}
	return auctions, nil
}

// AddParticipant records a user's participation in an auction. Adding an
// already-present participant is a no-op.
func (s *MemoryStore) AddParticipant(userID, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.participants[userID]
	if !ok {
		set = make(map[string]struct{})
		s.participants[userID] = set
	}
	set[auctionID] = struct{}{}
	return nil
}

// ParticipatedAuctions returns all auctions a user has bid on.
func (s *MemoryStore) ParticipatedAuctions(userID string) ([]model.Auction, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.participants[userID]))
	for id := range s.participants[userID] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetAuction(id)
		if err != nil {
			continue
		}
		auctions = append(auctions, a)
	}
	return auctions, nil
}

// GetEvent returns event metadata for notification text and host checks.
func (s *MemoryStore) GetEvent(eventID string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %s: %w", eventID, auctionerrors.ErrEventNotFound)
	}
	return ev, nil
}

// GetUser returns user contact details.
func (s *MemoryStore) GetUser(userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// AddEvent seeds event metadata. The Event collaborator owns event CRUD; this
// is the ingestion point for its data.
func (s *MemoryStore) AddEvent(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.EventID] = ev
}

// AddUser seeds user contact data supplied by the identity collaborator.
func (s *MemoryStore) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
}

func cloneAuction(a model.Auction) model.Auction {
	a.Bids = append([]model.Bid(nil), a.Bids...)
	return a
}
