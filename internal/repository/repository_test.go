package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventhive/internal/auctionerrors"
	model "eventhive/internal/models"
)

// Helper to create an auction aggregate with sane terms
func newAuction(auctionID, eventID string, startingBid, increment float64, durationMinutes int) model.Auction {
	return model.Auction{
		AuctionID:       auctionID,
		EventID:         eventID,
		ItemName:        fmt.Sprintf("%s item", auctionID),
		StartingBid:     startingBid,
		BidIncrement:    increment,
		DurationMinutes: durationMinutes,
		Status:          model.StatusActive,
		CreatedAt:       time.Now().UTC(),
	}
}

// Helper to create a bid
func newBid(bidID, bidderID string, amount float64) model.Bid {
	return model.Bid{BidID: bidID, BidderID: bidderID, Amount: amount}
}

func mustCreate(t *testing.T, store *MemoryStore, a model.Auction) model.Auction {
	t.Helper()
	created, err := store.CreateAuction(a)
	require.NoError(t, err)
	return created
}

func TestMemoryStore_CreateAuction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	created := mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))
	require.Equal(t, uint64(1), created.Version)
	require.Empty(t, created.Bids)
	require.Zero(t, created.CurrentHighestBid)

	// Duplicate ids are rejected
	_, err := store.CreateAuction(newAuction("a1", "e1", 100, 10, 60))
	require.ErrorIs(t, err, auctionerrors.ErrStoreConflict)
}

func TestMemoryStore_GetAuction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))

	t.Run("found", func(t *testing.T) {
		a, err := store.GetAuction("a1")
		require.NoError(t, err)
		require.Equal(t, "a1", a.AuctionID)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := store.GetAuction("missing")
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})

	t.Run("snapshot_is_isolated", func(t *testing.T) {
		a, err := store.GetAuction("a1")
		require.NoError(t, err)
		a.Bids = append(a.Bids, newBid("rogue", "u1", 1))

		fresh, err := store.GetAuction("a1")
		require.NoError(t, err)
		require.Empty(t, fresh.Bids)
	})
}

func TestMemoryStore_AppendBid(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	created := mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))

	updated, err := store.AppendBid("a1", newBid("b1", "user1", 100), created.Version)
	require.NoError(t, err)
	require.Equal(t, 100.0, updated.CurrentHighestBid)
	require.Len(t, updated.Bids, 1)
	require.Equal(t, created.Version+1, updated.Version)
	require.False(t, updated.Bids[0].CreatedAt.IsZero(), "store assigns bid timestamps")

	t.Run("stale_version_conflicts", func(t *testing.T) {
		_, err := store.AppendBid("a1", newBid("b2", "user2", 110), created.Version)
		require.ErrorIs(t, err, auctionerrors.ErrStoreConflict)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		_, err := store.AppendBid("missing", newBid("b3", "user2", 110), 1)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})

	t.Run("finished_auction_rejects", func(t *testing.T) {
		fin := mustCreate(t, store, newAuction("a2", "e1", 100, 10, 60))
		fin, err := store.TransitionStatus("a2", model.StatusActive, model.StatusFinished)
		require.NoError(t, err)

		_, err = store.AppendBid("a2", newBid("b4", "user2", 110), fin.Version)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotActive)
	})
}

func TestMemoryStore_AppendBid_NoLateAdmission(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	created := mustCreate(t, store, newAuction("a1", "e1", 100, 10, 1))

	// Jump the store clock past the end time
	store.SetClock(func() time.Time { return created.CreatedAt.Add(2 * time.Minute) })

	_, err := store.AppendBid("a1", newBid("b1", "user1", 100), created.Version)
	require.ErrorIs(t, err, auctionerrors.ErrAuctionEnded)

	a, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.Empty(t, a.Bids, "no bid may commit at or past the end time")
}

func TestMemoryStore_AppendBid_MonotonicTimestamps(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	created := mustCreate(t, store, newAuction("a1", "e1", 1, 1, 60))

	// Frozen clock: every append sees the same wall time
	store.SetClock(func() time.Time { return created.CreatedAt.Add(time.Second) })

	version := created.Version
	for i := 1; i <= 5; i++ {
		updated, err := store.AppendBid("a1", newBid(fmt.Sprintf("b%d", i), "user1", float64(i)), version)
		require.NoError(t, err)
		version = updated.Version
	}

	a, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.Len(t, a.Bids, 5)
	for i := 1; i < len(a.Bids); i++ {
		require.True(t, a.Bids[i].CreatedAt.After(a.Bids[i-1].CreatedAt),
			"bid timestamps must be strictly increasing per auction")
	}
}

func TestMemoryStore_AppendBid_ConcurrentSameAuction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	created := mustCreate(t, store, newAuction("a1", "e1", 1, 1, 60))

	// All workers race on the same version: exactly one commit wins.
	const workers = 16
	var wg sync.WaitGroup
	committed := make(chan model.Auction, workers)
	conflicts := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			updated, err := store.AppendBid("a1", newBid(fmt.Sprintf("b%d", i), fmt.Sprintf("user%d", i), float64(i+1)), created.Version)
			if err != nil {
				conflicts <- err
				return
			}
			committed <- updated
		}(i)
	}
	wg.Wait()
	close(committed)
	close(conflicts)

	require.Len(t, committed, 1, "exactly one optimistic append may win")
	require.Len(t, conflicts, workers-1)
	for err := range conflicts {
		require.ErrorIs(t, err, auctionerrors.ErrStoreConflict)
	}

	a, err := store.GetAuction("a1")
	require.NoError(t, err)
	require.Len(t, a.Bids, 1)
	require.Equal(t, a.Bids[0].Amount, a.CurrentHighestBid)
}

func TestMemoryStore_AppendBid_HighestBidMonotonic(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	created := mustCreate(t, store, newAuction("a1", "e1", 1, 1, 60))

	// Serial rapid-fire appends with reload-on-conflict, run concurrently.
	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for {
				a, err := store.GetAuction(created.AuctionID)
				require.NoError(t, err)
				amount := a.CurrentHighestBid + 1
				_, err = store.AppendBid(created.AuctionID, newBid(fmt.Sprintf("b%d", i), fmt.Sprintf("user%d", i), amount), a.Version)
				if err == nil {
					return
				}
				require.ErrorIs(t, err, auctionerrors.ErrStoreConflict)
			}
		}(i)
	}
	wg.Wait()

	a, err := store.GetAuction(created.AuctionID)
	require.NoError(t, err)
	require.Len(t, a.Bids, workers)

	highest := 0.0
	for _, b := range a.Bids {
		require.Greater(t, b.Amount, highest, "committed amounts grow in commit order")
		highest = b.Amount
	}
	require.Equal(t, highest, a.CurrentHighestBid)
}

func TestMemoryStore_TransitionStatus(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))

	tests := []struct {
		name      string
		auctionID string
		expected  model.AuctionStatus
		next      model.AuctionStatus
		wantErr   error
	}{
		{name: "active_to_finished", auctionID: "a1", expected: model.StatusActive, next: model.StatusFinished},
		{name: "already_finished", auctionID: "a1", expected: model.StatusActive, next: model.StatusFinished, wantErr: auctionerrors.ErrStatusConflict},
		{name: "unknown_auction", auctionID: "missing", expected: model.StatusActive, next: model.StatusFinished, wantErr: auctionerrors.ErrAuctionNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := store.TransitionStatus(tc.auctionID, tc.expected, tc.next)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.next, a.Status)
		})
	}
}

func TestMemoryStore_TransitionStatus_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.TransitionStatus("a1", model.StatusActive, model.StatusFinished); err == nil {
				wins <- struct{}{}
			} else {
				require.ErrorIs(t, err, auctionerrors.ErrStatusConflict)
			}
		}()
	}
	wg.Wait()
	close(wins)

	require.Len(t, wins, 1, "compare-and-swap admits exactly one terminal transition")
}

func TestMemoryStore_Participants(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	mustCreate(t, store, newAuction("a1", "e1", 100, 10, 60))
	mustCreate(t, store, newAuction("a2", "e1", 100, 10, 60))

	require.NoError(t, store.AddParticipant("user1", "a1"))
	require.NoError(t, store.AddParticipant("user1", "a1")) // idempotent
	require.NoError(t, store.AddParticipant("user1", "a2"))

	auctions, err := store.ParticipatedAuctions("user1")
	require.NoError(t, err)
	require.Len(t, auctions, 2)

	none, err := store.ParticipatedAuctions("stranger")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMemoryStore_Directories(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	store.AddEvent(model.Event{EventID: "e1", Title: "Launch", HostID: "host1", HostEmail: "host@example.com"})
	store.AddUser(model.User{UserID: "user1", Username: "sponsor", Email: "sponsor@example.com"})

	ev, err := store.GetEvent("e1")
	require.NoError(t, err)
	require.Equal(t, "host1", ev.HostID)

	_, err = store.GetEvent("missing")
	require.ErrorIs(t, err, auctionerrors.ErrEventNotFound)

	u, err := store.GetUser("user1")
	require.NoError(t, err)
	require.Equal(t, "sponsor@example.com", u.Email)

	_, err = store.GetUser("missing")
	require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
}
