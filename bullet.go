package main

import "math"

const (
	PlayerBulletSpeed = 6.5 // units per tick
	BotBulletSpeed    = 5.0
	AutoBulletSpeed   = 6.0

	HomingStrength = 0.02 // max radians per tick a homing bullet turns
	HomingRange    = 800.0
	HomingRangeSq  = HomingRange * HomingRange
	HomingStride   = 3 // a third of player bullets re-aim each tick

	BotBulletColor  = "#FF0000"
	AutoBulletColor = "#ffea00"
)

// Faction decides collision and homing eligibility
type Faction uint8

const (
	FactionPlayer Faction = iota
	FactionBot
)

// Opposes reports whether bullets of the two factions interact
func (f Faction) Opposes(o Faction) bool {
	return f != o
}

// Bullet is a projectile stored in a BulletPool slot
type Bullet struct {
	X, Y            float64
	Angle           float64
	Speed           float64
	Color           string
	OwnerID         string
	Faction         Faction
	Active          bool
	FromAutoShooter bool
}

// Move advances the bullet one tick along its heading
func (b *Bullet) Move() {
	b.X += math.Cos(b.Angle) * b.Speed
	b.Y += math.Sin(b.Angle) * b.Speed
}

// OutOfBounds reports whether the bullet left the playfield rectangle
func (b *Bullet) OutOfBounds(width, height float64) bool {
	return b.X < 0 || b.X > width || b.Y < 0 || b.Y > height
}

// ToState converts to protocol state
func (b *Bullet) ToState() BulletState {
	return BulletState{
		X:     round1(b.X),
		Y:     round1(b.Y),
		Angle: round2(b.Angle),
		Color: b.Color,
	}
}

// spawnBullet obtains a slot and fills it in
func (w *World) spawnBullet(x, y, angle, speed float64, color, owner string, faction Faction) *Bullet {
	h := w.bullets.Obtain()
	b := w.bullets.Get(h)
	b.X = x
	b.Y = y
	b.Angle = NormalizeAngle(angle)
	b.Speed = speed
	b.Color = color
	b.OwnerID = owner
	b.Faction = faction
	return b
}

// advanceBullets re-aims a rotating third of player bullets, moves every
// active bullet and releases the ones that left the playfield.
// The grid must hold this tick's bullet positions.
func (w *World) advanceBullets() {
	w.handleBuf = w.bullets.Active(w.handleBuf[:0])
	for _, h := range w.handleBuf {
		b := w.bullets.Get(h)
		if b.Faction == FactionPlayer && (uint64(h)+w.Tick)%HomingStride == 0 {
			if target := w.nearestOpposingBullet(h, b); target != nil {
				desired := math.Atan2(target.Y-b.Y, target.X-b.X)
				b.Angle, _ = TurnToward(b.Angle, desired, HomingStrength)
			}
		}
		b.Move()
		if b.OutOfBounds(w.Width, w.Height) {
			w.bullets.Release(h)
		}
	}
}

// nearestOpposingBullet returns the closest bullet of the other faction within HomingRange
func (w *World) nearestOpposingBullet(self BulletHandle, b *Bullet) *Bullet {
	var nearest *Bullet
	best := HomingRangeSq
	w.refBuf = w.grid.QueryBuf(b.X, b.Y, HomingSearchCells, w.refBuf[:0])
	for _, ref := range w.refBuf {
		if ref.Kind != RefBullet || BulletHandle(ref.Idx) == self {
			continue
		}
		h := BulletHandle(ref.Idx)
		if !w.bullets.IsActive(h) {
			continue
		}
		t := w.bullets.Get(h)
		if !b.Faction.Opposes(t.Faction) {
			continue
		}
		d2 := DistanceSq(b.X, b.Y, t.X, t.Y)
		if d2 < best {
			best = d2
			nearest = t
		}
	}
	return nearest
}
