package main

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	inboxSize  = 1024
	maxPlayers = 32
)

// Broadcaster is the outbound side of one connection. Both methods must
// not block.
type Broadcaster interface {
	SendRaw(data []byte)    // JSON text frame
	SendBinary(data []byte) // msgpack binary frame
}

// GameStats is a point-in-time view of the arena, safe to read from any goroutine
type GameStats struct {
	Tick    uint64 `json:"tick"`
	Clients int64  `json:"clients"`
	Players int64  `json:"players"`
	Bots    int64  `json:"bots"`
	Bullets int64  `json:"bullets"`
}

// Game runs the World on a single goroutine. Connection goroutines talk to
// it only through the inbox.
type Game struct {
	world   *World
	clients map[string]Broadcaster // connection id -> outbound
	inbox   chan interface{}
	stop    chan struct{}
	once    sync.Once

	// updated once per tick for readers outside Run
	tick, nClients, nPlayers, nBots, nBullets atomic.Int64

	snap   WorldSnapshot
	encBuf bytes.Buffer
	enc    *msgpack.Encoder
}

// NewGame creates a Game around a fresh World
func NewGame(cfg SimConfig, sink EventSink) *Game {
	g := &Game{
		clients: make(map[string]Broadcaster),
		inbox:   make(chan interface{}, inboxSize),
		stop:    make(chan struct{}),
		snap:    WorldSnapshot{Players: make(map[string]PlayerState)},
	}
	g.world = NewWorld(cfg, g, sink, time.Now().UnixNano())
	g.enc = msgpack.NewEncoder(&g.encBuf)
	return g
}

// Run starts the game loop. It returns after Stop.
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case in := <-g.inbox:
			g.handle(in, time.Now())
		case now := <-ticker.C:
			g.update(now)
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.once.Do(func() { close(g.stop) })
}

// submit queues an intent that must not be lost. Returns false once the
// game has stopped.
func (g *Game) submit(in interface{}) bool {
	select {
	case g.inbox <- in:
		return true
	case <-g.stop:
		return false
	}
}

// offer queues an intent that may be dropped under load
func (g *Game) offer(in interface{}) {
	select {
	case g.inbox <- in:
	default:
	}
}

// Attach registers a connection so it receives broadcasts
func (g *Game) Attach(id string, out Broadcaster) bool {
	return g.submit(attachIntent{ID: id, Out: out})
}

// Detach drops a connection and its player
func (g *Game) Detach(id string) {
	g.submit(detachIntent{ID: id})
}

// Login spawns a player for a connection whose credentials were checked
func (g *Game) Login(id, username string, accountID int64, token string) bool {
	return g.submit(loginIntent{ID: id, Username: username, AccountID: accountID, Token: token})
}

func (g *Game) Move(id string, m MoveMsg) { g.offer(moveIntent{ID: id, Msg: m}) }
func (g *Game) Rotate(id string, angle float64) { g.offer(rotateIntent{ID: id, Angle: angle}) }
func (g *Game) Shoot(id string, m ShootMsg) { g.offer(shootIntent{ID: id, Msg: m}) }
func (g *Game) Pause(id string, paused bool) { g.submit(pauseIntent{ID: id, Paused: paused}) }
func (g *Game) Collect(id, pickupID string) { g.offer(collectIntent{ID: id, PickupID: pickupID}) }
func (g *Game) Ping(id string) { g.offer(pingIntent{ID: id}) }
func (g *Game) SetDimensions(id string, w, h float64) { g.submit(dimensionsIntent{ID: id, Width: w, Height: h}) }

// Stats returns the counters published by the last tick
func (g *Game) Stats() GameStats {
	return GameStats{
		Tick:    uint64(g.tick.Load()),
		Clients: g.nClients.Load(),
		Players: g.nPlayers.Load(),
		Bots:    g.nBots.Load(),
		Bullets: g.nBullets.Load(),
	}
}

// handle applies one intent. Only called from Run.
func (g *Game) handle(in interface{}, now time.Time) {
	w := g.world
	switch c := in.(type) {
	case attachIntent:
		g.clients[c.ID] = c.Out
	case detachIntent:
		w.removePlayer(c.ID, now, RunEndDisconnect)
		delete(g.clients, c.ID)
	case loginIntent:
		g.login(c, now)
	case moveIntent:
		w.movePlayer(c.ID, c.Msg)
	case rotateIntent:
		w.rotatePlayer(c.ID, c.Angle)
	case shootIntent:
		w.playerShoot(c.ID, c.Msg, now)
	case pauseIntent:
		w.pausePlayer(c.ID, c.Paused)
	case dimensionsIntent:
		if w.SetDimensions(c.Width, c.Height) {
			log.Printf("arena resized to %.0fx%.0f by %s", w.Width, w.Height, c.ID)
		}
	case collectIntent:
		w.collectPickup(c.ID, c.PickupID, now)
	case pingIntent:
		g.SendTo(c.ID, MsgPong, nil)
	default:
		log.Printf("game: unknown intent %T", in)
	}
}

func (g *Game) login(c loginIntent, now time.Time) {
	w := g.world
	if _, ok := g.clients[c.ID]; !ok {
		return
	}
	if w.Player(c.ID) != nil {
		g.SendTo(c.ID, MsgError, ErrorMsg{Msg: "already playing"})
		return
	}
	if w.PlayerCount() >= maxPlayers {
		g.SendTo(c.ID, MsgError, ErrorMsg{Msg: "arena full"})
		return
	}
	color := PlayerColors[w.PlayerCount()%len(PlayerColors)]
	p := NewPlayer(c.ID, SanitizeName(c.Username), color, w.Width/2, w.Height/2, now)
	p.AccountID = c.AccountID
	w.addPlayer(p, now)
	w.track(EvtRunStart, p.AccountID, map[string]string{"username": p.Username})

	g.SendTo(c.ID, MsgLoginConfirm, LoginConfirmMsg{
		ID:       p.ID,
		Position: Position{X: round1(p.X), Y: round1(p.Y)},
		Color:    p.Color,
		Username: p.Username,
		Token:    c.Token,
	})
}

// update runs one game tick
func (g *Game) update(now time.Time) {
	w := g.world
	w.Step(now)

	if w.Tick%BroadcastEvery == 0 {
		g.broadcastState()
	}

	g.tick.Store(int64(w.Tick))
	g.nClients.Store(int64(len(g.clients)))
	g.nPlayers.Store(int64(w.PlayerCount()))
	g.nBots.Store(int64(w.BotCount()))
	g.nBullets.Store(int64(w.BulletCount()))
}

// snapshot fills the reusable snapshot from the world
func (g *Game) snapshot() *WorldSnapshot {
	w := g.world
	s := &g.snap
	for id := range s.Players {
		delete(s.Players, id)
	}
	w.eachPlayer(func(p *Player) {
		s.Players[p.ID] = p.ToState()
	})
	s.Bots = s.Bots[:0]
	for _, b := range w.bots {
		s.Bots = append(s.Bots, b.ToState())
	}
	s.Bullets = s.Bullets[:0]
	w.handleBuf = w.bullets.Active(w.handleBuf[:0])
	for _, h := range w.handleBuf {
		s.Bullets = append(s.Bullets, w.bullets.Get(h).ToState())
	}
	s.Pickups = s.Pickups[:0]
	for _, p := range w.pickups {
		s.Pickups = append(s.Pickups, p.ToState())
	}
	s.Tick = w.Tick
	return s
}

// broadcastState sends the msgpack snapshot to every connection
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	g.encBuf.Reset()
	if err := g.enc.Encode(UpdateFrame{T: MsgUpdate, D: *g.snapshot()}); err != nil {
		log.Printf("snapshot encode error: %v", err)
		return
	}
	// SendBinary copies, so the buffer can be reused next tick
	data := g.encBuf.Bytes()
	for _, c := range g.clients {
		c.SendBinary(data)
	}
}

// Broadcast sends a JSON message to every connection
func (g *Game) Broadcast(msgType string, data interface{}) {
	if len(g.clients) == 0 {
		return
	}
	raw, err := json.Marshal(Envelope{T: msgType, Data: data})
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	for _, c := range g.clients {
		c.SendRaw(raw)
	}
}

// SendTo sends a JSON message to one connection
func (g *Game) SendTo(id string, msgType string, data interface{}) {
	c, ok := g.clients[id]
	if !ok {
		return
	}
	raw, err := json.Marshal(Envelope{T: msgType, Data: data})
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(raw)
}
