package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-profiles/internal/domain"
)

// Message types
const (
	MessageTypeHighscoreUpdate = "highscore_update"
	MessageTypePlayerUpdate    = "player_update"
	MessageTypeSubscribe       = "subscribe"
	MessageTypeUnsubscribe     = "unsubscribe"
	MessageTypeSubscribed      = "subscribed"
	MessageTypeUnsubscribed    = "unsubscribed"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
	MessageTypeError           = "error"
)

// Message is a frame pushed to websocket clients
type Message struct {
	Type      string    `json:"type"`
	GameName  string    `json:"game_name,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HighscoreUpdate carries the current top of a game's ranking
type HighscoreUpdate struct {
	GameName string             `json:"game_name"`
	Entries  []domain.RankEntry `json:"entries"`
}

// Hub tracks connected cabinets and displays and fans out ranking changes per game
type Hub struct {
	// Subscribed clients by game name
	games map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	broadcast   chan *Message
	subscribe   chan subscription
	unsubscribe chan subscription

	mu     sync.RWMutex
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type subscription struct {
	client   *Client
	gameName string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		games:       make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan subscription, 64),
		unsubscribe: make(chan subscription, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.removeClient(client)
			h.logger.Debug("client unregistered", "client_id", client.id)

		case sub := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.allClients[sub.client]; ok {
				if _, ok := h.games[sub.gameName]; !ok {
					h.games[sub.gameName] = make(map[*Client]bool)
				}
				h.games[sub.gameName][sub.client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", sub.client.id, "game", sub.gameName)

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			h.dropSubscription(sub.client, sub.gameName)
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", sub.client.id, "game", sub.gameName)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)
	for gameName := range h.games {
		h.dropSubscription(client, gameName)
	}
	close(client.send)
}

// dropSubscription must be called with mu held
func (h *Hub) dropSubscription(client *Client, gameName string) {
	clients, ok := h.games[gameName]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.games, gameName)
	}
}

// deliver sends a message to the subscribers of its game, or to everyone when it has none
func (h *Hub) deliver(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	targets := h.allClients
	if message.GameName != "" {
		targets = h.games[message.GameName]
	}
	for client := range targets {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", message.Type, "game", message.GameName)
	}
}

// BroadcastHighscores pushes a game's current top entries to its subscribers
func (h *Hub) BroadcastHighscores(gameName string, entries []domain.RankEntry) {
	if entries == nil {
		entries = []domain.RankEntry{}
	}
	h.enqueue(&Message{
		Type:     MessageTypeHighscoreUpdate,
		GameName: gameName,
		Data: HighscoreUpdate{
			GameName: gameName,
			Entries:  entries,
		},
		Timestamp: time.Now(),
	})
}

// BroadcastPlayerUpdate pushes a player's new ranking entry to the game's subscribers
func (h *Hub) BroadcastPlayerUpdate(gameName string, entry *domain.RankEntry) {
	if entry == nil {
		return
	}
	h.enqueue(&Message{
		Type:      MessageTypePlayerUpdate,
		GameName:  gameName,
		Data:      entry,
		Timestamp: time.Now(),
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Subscribe adds a client to a game's updates
func (h *Hub) Subscribe(client *Client, gameName string) {
	h.subscribe <- subscription{client: client, gameName: gameName}
}

// Unsubscribe removes a client from a game's updates
func (h *Hub) Unsubscribe(client *Client, gameName string) {
	h.unsubscribe <- subscription{client: client, gameName: gameName}
}

// GetSubscriberCount returns the number of subscribers for a game
func (h *Hub) GetSubscriberCount(gameName string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameName])
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
