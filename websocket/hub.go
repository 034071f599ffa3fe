package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types pushed over WebSocket
const (
	NotificationTypeWithdrawalRequested = "withdrawal_requested"
	NotificationTypeWithdrawalResolved  = "withdrawal_resolved"
	NotificationTypeCommissionEarned    = "commission_earned"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID  primitive.ObjectID
	IsAdmin bool
	Conn    *websocket.Conn
}

// Hub maintains the set of active clients and pushes notifications
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(notification)
}

// BroadcastToAdmins sends a notification to every connected admin
func (h *Hub) BroadcastToAdmins(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.IsAdmin {
			client.Conn.WriteJSON(notification)
		}
	}
}

// NotifyWithdrawalRequested tells connected admins a withdrawal awaits review
func (h *Hub) NotifyWithdrawalRequested(withdrawalData interface{}) {
	h.BroadcastToAdmins(Notification{
		Type:    NotificationTypeWithdrawalRequested,
		Message: "New withdrawal request awaiting review",
		Data:    withdrawalData,
	})
}

// NotifyWithdrawalResolved tells the requesting user about the decision
func (h *Hub) NotifyWithdrawalResolved(userID primitive.ObjectID, withdrawalData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    NotificationTypeWithdrawalResolved,
		Message: "Your withdrawal request has been processed",
		Data:    withdrawalData,
	})
}

// NotifyCommissionEarned tells an ancestor a commission landed in their wallet
func (h *Hub) NotifyCommissionEarned(userID primitive.ObjectID, earningData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    NotificationTypeCommissionEarned,
		Message: "You earned a referral commission",
		Data:    earningData,
	})
}
