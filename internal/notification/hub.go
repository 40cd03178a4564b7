// Package notification fans auction state changes out to watching clients
// and to a durable outbound mail queue.
package notification

import (
	"sync"
	"time"

	"eventhive/internal/leaderboard"
	model "eventhive/internal/models"
	"eventhive/utils"
)

// TopicKind scopes a subscription.
type TopicKind string

const (
	TopicAuction TopicKind = "auction"
	TopicEvent   TopicKind = "event"
	TopicUser    TopicKind = "user"
)

// Topic identifies one broadcast channel.
type Topic struct {
	Kind TopicKind
	ID   string
}

// AuctionTopic returns the topic for one auction's watchers.
func AuctionTopic(auctionID string) Topic { return Topic{Kind: TopicAuction, ID: auctionID} }

// EventTopic returns the topic for an event's watchers.
func EventTopic(eventID string) Topic { return Topic{Kind: TopicEvent, ID: eventID} }

// UserTopic returns the topic addressing a single user.
func UserTopic(userID string) Topic { return Topic{Kind: TopicUser, ID: userID} }

// Sink receives broadcast payloads. A Send error marks the sink dead; the hub
// drops it from every topic.
type Sink interface {
	Send(payload any) error
}

// Hub is a topic-keyed publish/subscribe fan-out. Delivery is best-effort and
// at-most-once; clients needing a fresh state can request a snapshot instead
// of waiting for the next mutation.
type Hub struct {
	mu     sync.RWMutex
	topics map[Topic]map[Sink]struct{}
	sinks  map[Sink]map[Topic]struct{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		topics: make(map[Topic]map[Sink]struct{}),
		sinks:  make(map[Sink]map[Topic]struct{}),
	}
}

// Subscribe attaches a sink to the given topics.
func (h *Hub) Subscribe(sink Sink, topics ...Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.sinks[sink]
	if !ok {
		joined = make(map[Topic]struct{})
		h.sinks[sink] = joined
	}
	for _, t := range topics {
		subs, ok := h.topics[t]
		if !ok {
			subs = make(map[Sink]struct{})
			h.topics[t] = subs
		}
		subs[sink] = struct{}{}
		joined[t] = struct{}{}
	}
}

// Unsubscribe detaches a sink from the given topics, or from all of its
// topics when none are named.
func (h *Hub) Unsubscribe(sink Sink, topics ...Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(topics) == 0 {
		for t := range h.sinks[sink] {
			topics = append(topics, t)
		}
	}
	for _, t := range topics {
		h.removeLocked(sink, t)
	}
}

func (h *Hub) removeLocked(sink Sink, t Topic) {
	if subs, ok := h.topics[t]; ok {
		delete(subs, sink)
		if len(subs) == 0 {
			delete(h.topics, t)
		}
	}
	if joined, ok := h.sinks[sink]; ok {
		delete(joined, t)
		if len(joined) == 0 {
			delete(h.sinks, sink)
		}
	}
}

// Publish delivers a payload to every sink on a topic. Sinks whose Send fails
// are dropped from all topics.
func (h *Hub) Publish(topic Topic, payload any) {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.topics[topic]))
	for s := range h.topics[topic] {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Send(payload); err != nil {
			utils.Warn("hub: dropping subscriber after send failure", map[string]any{
				"topic_kind": string(topic.Kind),
				"topic_id":   topic.ID,
				"error":      err.Error(),
			})
			h.Unsubscribe(s)
		}
	}
}

// SubscriberCount reports how many sinks are attached to a topic.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Update types tagged on leaderboard broadcasts.
const (
	UpdateInitialLoad   = "initial_load"
	UpdateBid           = "bid_update"
	UpdateManualRefresh = "manual_refresh"
	UpdateAuctionEnded  = "auction_ended"
)

// LeaderboardUpdate is the payload pushed to an auction's subscribers on
// every committed mutation, and on demand as a snapshot.
type LeaderboardUpdate struct {
	AuctionID      string                  `json:"auction_id"`
	Leaderboard    leaderboard.Leaderboard `json:"leaderboard"`
	Status         model.AuctionStatus     `json:"status"`
	ServerTime     time.Time               `json:"server_time"`
	AuctionEndTime time.Time               `json:"auction_end_time"`
	UpdateType     string                  `json:"update_type"`
	Timestamp      time.Time               `json:"timestamp"`
}

// EventAuctionUpdate is the lighter summary pushed to the parent event's
// subscribers.
type EventAuctionUpdate struct {
	ItemName string `json:"item_name"`
	LeaderboardUpdate
}

// NewLeaderboardUpdate captures an auction snapshot for broadcast.
func NewLeaderboardUpdate(a model.Auction, lb leaderboard.Leaderboard, updateType string) LeaderboardUpdate {
	now := time.Now().UTC()
	return LeaderboardUpdate{
		AuctionID:      a.AuctionID,
		Leaderboard:    lb,
		Status:         a.Status,
		ServerTime:     now,
		AuctionEndTime: a.EndTime(),
		UpdateType:     updateType,
		Timestamp:      now,
	}
}
