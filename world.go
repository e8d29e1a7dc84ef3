package main

import (
	"math"
	"math/rand"
	"time"
)

const (
	DefaultArenaWidth  = 1024.0
	DefaultArenaHeight = 768.0
	MaxArenaSide       = 8192.0
)

// Notifier delivers simulation events to connections. Implementations must not block.
type Notifier interface {
	Broadcast(msgType string, data interface{})
	SendTo(playerID string, msgType string, data interface{})
}

// EventSink receives analytics events. Implementations must not block.
type EventSink interface {
	Track(evtType string, playerID int64, data interface{})
}

// SimConfig holds the tunables of the simulation that operators may change
type SimConfig struct {
	Width, Height     float64
	PickupSpawnChance float64
}

// DefaultSimConfig returns the stock arena settings
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Width:             DefaultArenaWidth,
		Height:            DefaultArenaHeight,
		PickupSpawnChance: PickupSpawnChance,
	}
}

// World is the whole simulation state. It is owned by one goroutine
// (Game.Run); nothing else may read or write it.
type World struct {
	Width, Height float64
	Tick          uint64

	players map[string]*Player
	order   []string // player ids in join order, for stable iteration
	bots    []*Bot
	bullets *BulletPool
	pickups []*Pickup
	grid    *SpatialGrid

	pickupChance   float64
	difficultyBase time.Time
	rng            *rand.Rand
	out            Notifier
	sink           EventSink

	// scratch buffers reused every tick
	refBuf    []EntityRef
	handleBuf []BulletHandle
	nextBots  []*Bot
	nextPicks []*Pickup
	neighbors []*Bot
	idBuf     []string
}

// NewWorld creates an empty arena
func NewWorld(cfg SimConfig, out Notifier, sink EventSink, seed int64) *World {
	if cfg.Width <= 0 {
		cfg.Width = DefaultArenaWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultArenaHeight
	}
	if out == nil {
		out = nopNotifier{}
	}
	return &World{
		Width:        cfg.Width,
		Height:       cfg.Height,
		players:      make(map[string]*Player),
		bullets:      NewBulletPool(initialBulletSlots),
		grid:         NewSpatialGrid(cfg.Width, cfg.Height),
		pickupChance: cfg.PickupSpawnChance,
		rng:          rand.New(rand.NewSource(seed)),
		out:          out,
		sink:         sink,
	}
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, interface{})      {}
func (nopNotifier) SendTo(string, string, interface{}) {}

func (w *World) track(evtType string, accountID int64, data interface{}) {
	if w.sink != nil {
		w.sink.Track(evtType, accountID, data)
	}
}

// Player returns the player with the given id, or nil
func (w *World) Player(id string) *Player {
	return w.players[id]
}

// PlayerCount returns the number of live players
func (w *World) PlayerCount() int {
	return len(w.players)
}

// BotCount returns the number of live bots
func (w *World) BotCount() int {
	return len(w.bots)
}

// BulletCount returns the number of active bullets
func (w *World) BulletCount() int {
	return w.bullets.Len()
}

// SetDimensions resizes the playfield. Non-positive sizes are ignored.
func (w *World) SetDimensions(width, height float64) bool {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return false
	}
	w.Width = math.Min(width, MaxArenaSide)
	w.Height = math.Min(height, MaxArenaSide)
	return true
}

func (w *World) addPlayer(p *Player, now time.Time) {
	if len(w.players) == 0 {
		w.difficultyBase = now
	}
	if _, ok := w.players[p.ID]; !ok {
		w.order = append(w.order, p.ID)
	}
	w.players[p.ID] = p
}

// removePlayer drops the player and every effect it carries in one step.
// Unknown ids are a no-op.
func (w *World) removePlayer(id string, now time.Time, reason string) {
	p, ok := w.players[id]
	if !ok {
		return
	}
	p.clearEffects()
	delete(w.players, id)
	for i, pid := range w.order {
		if pid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.easeDifficulty(now)
	w.track(EvtRunEnd, p.AccountID, RunRecord{
		Username: p.Username,
		Score:    p.Score,
		Tier:     p.Tier,
		Seconds:  now.Sub(p.JoinedAt).Seconds(),
		Reason:   reason,
	})
}

// clearArena drops every bot, bullet and pickup once nobody is playing
func (w *World) clearArena() {
	w.bots = w.bots[:0]
	w.bullets.Reset()
	w.pickups = w.pickups[:0]
}

// eachPlayer visits players in join order
func (w *World) eachPlayer(fn func(p *Player)) {
	for _, id := range w.order {
		if p, ok := w.players[id]; ok {
			fn(p)
		}
	}
}

// Step advances the simulation by one tick
func (w *World) Step(now time.Time) {
	w.Tick++
	if len(w.players) == 0 {
		w.clearArena()
		return
	}

	w.expireEffects(now)
	w.expirePickups(now)

	w.indexGrid()
	w.advanceBullets()
	w.advanceBots(now)
	w.runAutoShooters(now)

	w.indexGrid()
	w.resolveCollisions(now)

	if w.Tick%BotSpawnEvery == 0 {
		w.spawnBots(now)
	}
}

// indexGrid rebuilds the spatial grid from live bullets and bots
func (w *World) indexGrid() {
	w.grid.Reset(w.Width, w.Height)
	w.handleBuf = w.bullets.Active(w.handleBuf[:0])
	for _, h := range w.handleBuf {
		b := w.bullets.Get(h)
		w.grid.Insert(b.X, b.Y, EntityRef{Kind: RefBullet, Idx: int(h)})
	}
	for i, bot := range w.bots {
		w.grid.Insert(bot.X, bot.Y, EntityRef{Kind: RefBot, Idx: i})
	}
}
