package main

import "time"

const (
	BulletBotHitSq    = 20.0 * 20.0
	BulletPlayerHitSq = PlayerHitRadiusSq
	BulletBulletHitSq = 12.0 * 12.0

	BotExplosionSize    = 30
	PlayerExplosionSize = 40
	BulletExplosionSize = 15
)

// Neon palette shared with the client renderer
const (
	NeonRed    = "#ff1744"
	NeonPurple = "#d500f9"
	NeonBlue   = "#2979ff"
	NeonCyan   = "#00e5ff"
	NeonYellow = "#ffea00"
	NeonOrange = "#ff9100"
)

// Explosion color sets, comma separated as the renderer expects
var (
	BotExplosionColors    = NeonOrange + ", " + NeonRed + ", " + NeonYellow
	PlayerExplosionColors = NeonBlue + ", " + NeonCyan + ", " + NeonPurple
	BulletExplosionColors = "255, 255, 255"
)

// resolveCollisions runs the three hit passes in order. A bullet released by
// an earlier pass is never tested again, and each bot or player dies at most
// once. The grid must hold post-motion positions.
func (w *World) resolveCollisions(now time.Time) {
	w.bulletsVsBots(now)
	w.bulletsVsPlayers(now)
	w.bulletsVsBullets()
	w.dropDeadBots()
}

// bulletsVsBots: player bullets destroy bots
func (w *World) bulletsVsBots(now time.Time) {
	w.handleBuf = w.bullets.Active(w.handleBuf[:0])
	for _, h := range w.handleBuf {
		b := w.bullets.Get(h)
		if b.Faction != FactionPlayer {
			continue
		}
		w.refBuf = w.grid.QueryBuf(b.X, b.Y, HitSearchCells, w.refBuf[:0])
		for _, ref := range w.refBuf {
			if ref.Kind != RefBot {
				continue
			}
			bot := w.bots[ref.Idx]
			if bot.dead || DistanceSq(b.X, b.Y, bot.X, bot.Y) >= BulletBotHitSq {
				continue
			}
			bot.dead = true
			owner := b.OwnerID
			w.bullets.Release(h)
			w.killBot(bot, owner, now)
			break
		}
	}
}

func (w *World) killBot(bot *Bot, ownerID string, now time.Time) {
	if p := w.players[ownerID]; p != nil {
		prev := p.Tier
		p.AddScore(1)
		if p.Tier != prev {
			w.track(EvtTierUp, p.AccountID, map[string]interface{}{"tier": int(p.Tier), "score": p.Score})
		}
	}
	w.trySpawnPickup(bot.X, bot.Y, now)
	w.out.Broadcast(MsgExplosion, ExplosionMsg{
		X:     round1(bot.X),
		Y:     round1(bot.Y),
		Color: BotExplosionColors,
		Size:  BotExplosionSize,
	})
}

// bulletsVsPlayers: bot bullets kill exposed players
func (w *World) bulletsVsPlayers(now time.Time) {
	// removePlayer edits w.order
	w.idBuf = append(w.idBuf[:0], w.order...)
	for _, id := range w.idBuf {
		p := w.players[id]
		if p == nil || p.Paused || p.Invulnerable(now) {
			continue
		}
		w.refBuf = w.grid.QueryBuf(p.X, p.Y, HitSearchCells, w.refBuf[:0])
		for _, ref := range w.refBuf {
			if ref.Kind != RefBullet {
				continue
			}
			h := BulletHandle(ref.Idx)
			if !w.bullets.IsActive(h) {
				continue
			}
			b := w.bullets.Get(h)
			if b.Faction != FactionBot || DistanceSq(p.X, p.Y, b.X, b.Y) >= BulletPlayerHitSq {
				continue
			}
			w.bullets.Release(h)
			w.out.Broadcast(MsgExplosion, ExplosionMsg{
				X:     round1(p.X),
				Y:     round1(p.Y),
				Color: PlayerExplosionColors,
				Size:  PlayerExplosionSize,
			})
			w.out.SendTo(p.ID, MsgDead, nil)
			w.removePlayer(p.ID, now, RunEndKilled)
			break
		}
	}
}

// bulletsVsBullets: opposing bullets cancel out. Same-faction bullets pass
// through each other.
func (w *World) bulletsVsBullets() {
	w.handleBuf = w.bullets.Active(w.handleBuf[:0])
	for _, h := range w.handleBuf {
		if !w.bullets.IsActive(h) {
			continue
		}
		b := w.bullets.Get(h)
		if b.Faction != FactionPlayer {
			continue
		}
		w.refBuf = w.grid.QueryBuf(b.X, b.Y, HitSearchCells, w.refBuf[:0])
		for _, ref := range w.refBuf {
			if ref.Kind != RefBullet || BulletHandle(ref.Idx) == h {
				continue
			}
			oh := BulletHandle(ref.Idx)
			if !w.bullets.IsActive(oh) {
				continue
			}
			o := w.bullets.Get(oh)
			if !b.Faction.Opposes(o.Faction) || DistanceSq(b.X, b.Y, o.X, o.Y) >= BulletBulletHitSq {
				continue
			}
			x, y := b.X, b.Y
			w.bullets.Release(h)
			w.bullets.Release(oh)
			w.out.Broadcast(MsgExplosion, ExplosionMsg{
				X:     round1(x),
				Y:     round1(y),
				Color: BulletExplosionColors,
				Size:  BulletExplosionSize,
			})
			break
		}
	}
}

// dropDeadBots is the retain pass for bots killed this tick
func (w *World) dropDeadBots() {
	next := w.nextBots[:0]
	for _, b := range w.bots {
		if !b.dead {
			next = append(next, b)
		}
	}
	w.nextBots = w.bots[:0]
	w.bots = next
}
