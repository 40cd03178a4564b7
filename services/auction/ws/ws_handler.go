// Package ws adapts websocket connections onto the notification hub. A
// connecting client authenticates once, gets placed into its user, auction
// and event topics, and receives leaderboard pushes until it disconnects.
package ws

import (
	"net/http"
	"sync"
	"time"

	auction "eventhive/internal/auctionService"
	"eventhive/internal/notification"
	"eventhive/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// SnapshotService provides the fresh auction state pushed on authenticate and
// on explicit snapshot requests.
type SnapshotService interface {
	GetAuction(auctionID string) (auction.AuctionView, error)
}

// inbound is the client-to-server message protocol.
type inbound struct {
	Action    string `json:"action"` // authenticate | request_leaderboard | leave_auction
	UserID    string `json:"user_id"`
	AuctionID string `json:"auction_id"`
	EventID   string `json:"event_id"`
}

// client wraps one websocket connection as a hub sink. Writes are serialized;
// gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) Send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(payload)
}

// Handler upgrades websocket connections and speaks the subscription protocol.
type Handler struct {
	hub      *notification.Hub
	service  SnapshotService
	upgrader websocket.Upgrader
}

// NewHandler creates a new websocket Handler instance
func NewHandler(hub *notification.Hub, service SnapshotService) *Handler {
	return &Handler{
		hub:     hub,
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("ws: upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	cl := &client{conn: conn}
	go h.readLoop(cl)
}

func (h *Handler) readLoop(cl *client) {
	defer func() {
		h.hub.Unsubscribe(cl)
		cl.conn.Close()
	}()

	for {
		var msg inbound
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Action {
		case "authenticate":
			h.authenticate(cl, msg)
		case "request_leaderboard":
			h.pushSnapshot(cl, msg.AuctionID, notification.UpdateManualRefresh)
		case "leave_auction":
			if msg.AuctionID != "" {
				h.hub.Unsubscribe(cl, notification.AuctionTopic(msg.AuctionID))
			}
		default:
			cl.Send(gin.H{"error": "unknown action"})
		}
	}
}

func (h *Handler) authenticate(cl *client, msg inbound) {
	topics := make([]notification.Topic, 0, 3)
	if msg.UserID != "" {
		topics = append(topics, notification.UserTopic(msg.UserID))
	}
	if msg.AuctionID != "" {
		topics = append(topics, notification.AuctionTopic(msg.AuctionID))
	}
	if msg.EventID != "" {
		topics = append(topics, notification.EventTopic(msg.EventID))
	}
	h.hub.Subscribe(cl, topics...)

	utils.Info("ws: client authenticated", map[string]any{
		"user_id":    msg.UserID,
		"auction_id": msg.AuctionID,
		"event_id":   msg.EventID,
	})

	if msg.AuctionID != "" {
		h.pushSnapshot(cl, msg.AuctionID, notification.UpdateInitialLoad)
	}
}

// pushSnapshot sends the current leaderboard to one client so a reconnecting
// subscriber does not have to wait for the next mutation.
func (h *Handler) pushSnapshot(cl *client, auctionID, updateType string) {
	if auctionID == "" {
		cl.Send(gin.H{"error": "missing auction_id"})
		return
	}
	view, err := h.service.GetAuction(auctionID)
	if err != nil {
		utils.Warn("ws: snapshot failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		cl.Send(gin.H{"error": "failed to load auction data"})
		return
	}
	cl.Send(notification.NewLeaderboardUpdate(view.Auction, view.Leaderboard, updateType))
}
