package main

import (
	"sync"
	"time"
)

// HubLimits caps WebSocket connections
type HubLimits struct {
	MaxConnsPerIP int
	MaxTotalConns int
}

// Hub manages all connected clients and hands them to the game
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]time.Time // connect time
	unregister chan *Client

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	limits     HubLimits

	game *Game
	db   *DB   // nil without a store
	auth *Auth // nil disables accounts; every login is a guest
	sink EventSink
}

// NewHub creates a new Hub in front of a running game
func NewHub(game *Game, db *DB, auth *Auth, sink EventSink, limits HubLimits) *Hub {
	if limits.MaxConnsPerIP <= 0 {
		limits.MaxConnsPerIP = 5
	}
	if limits.MaxTotalConns <= 0 {
		limits.MaxTotalConns = 1000
	}
	return &Hub{
		clients:    make(map[*Client]time.Time),
		unregister: make(chan *Client, 64),
		ipConns:    make(map[string]int),
		limits:     limits,
		game:       game,
		db:         db,
		auth:       auth,
		sink:       sink,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.limits.MaxTotalConns {
		return false
	}
	if h.ipConns[ip] >= h.limits.MaxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register attaches a client to the game before its pumps start, so its
// first message always finds it attached.
func (h *Hub) Register(c *Client) bool {
	if !h.game.Attach(c.id, c) {
		return false
	}
	h.mu.Lock()
	h.clients[c] = time.Now()
	h.mu.Unlock()
	h.track(EvtSessionStart, 0, map[string]string{"ip": c.remoteAddr})
	return true
}

// Run processes unregister events
func (h *Hub) Run() {
	for client := range h.unregister {
		h.game.Detach(client.id)

		h.mu.Lock()
		connected, ok := h.clients[client]
		if ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()

		if ok {
			h.track(EvtSessionEnd, 0, map[string]interface{}{
				"ip":      client.remoteAddr,
				"seconds": round1(time.Since(connected).Seconds()),
			})
		}
	}
}

func (h *Hub) track(evtType string, accountID int64, data interface{}) {
	if h.sink != nil {
		h.sink.Track(evtType, accountID, data)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
