// Package lifecycle actively sweeps for auctions whose end time has passed.
// The transition itself is level-triggered and idempotent, so the sweeper is
// a safety net on top of the lazy checks in the read and bid paths: any
// trigger may fire, the store's compare-and-swap applies it once.
package lifecycle

import (
	"context"
	"time"

	model "eventhive/internal/models"
	"eventhive/utils"
)

// AuctionLister provides the active-auction snapshots to sweep.
type AuctionLister interface {
	ListByStatus(status model.AuctionStatus) ([]model.Auction, error)
}

// Finisher applies the terminal transition for one auction.
type Finisher interface {
	FinishIfExpired(auctionID string) (bool, error)
}

// Monitor periodically finishes expired auctions.
type Monitor struct {
	store    AuctionLister
	finisher Finisher
	interval time.Duration
	now      func() time.Time
}

// NewMonitor creates a new Monitor instance
func NewMonitor(store AuctionLister, finisher Finisher, interval time.Duration) *Monitor {
	return &Monitor{
		store:    store,
		finisher: finisher,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep finishes every active auction past its end time and returns how many
// transitions this sweep applied.
func (m *Monitor) Sweep() int {
	active, err := m.store.ListByStatus(model.StatusActive)
	if err != nil {
		utils.Error("lifecycle: failed to list active auctions", map[string]any{"error": err.Error()})
		return 0
	}

	finished := 0
	now := m.now()
	for _, a := range active {
		if now.Before(a.EndTime()) {
			continue
		}
		applied, err := m.finisher.FinishIfExpired(a.AuctionID)
		if err != nil {
			utils.Warn("lifecycle: failed to finish expired auction", map[string]any{
				"auction_id": a.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		if applied {
			finished++
		}
	}

	if finished > 0 {
		utils.Info("lifecycle: sweep finished expired auctions", map[string]any{"count": finished})
	}
	return finished
}
