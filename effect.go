package main

import (
	"math"
	"time"
)

// PickupType identifies a power-up. The set is closed: every switch over it
// must handle all values.
type PickupType int

const (
	PickupShield PickupType = iota
	PickupAutoShooter
	PickupSpeedBoost

	numPickupTypes = 3
)

// Effect durations and payload tunables
const (
	ShieldDuration      = 5 * time.Second
	AutoShooterDuration = 8 * time.Second
	SpeedBoostDuration  = 7 * time.Second

	AutoShooterInterval = 200 * time.Millisecond
	AutoShooterRange    = 400.0
	AutoShooterRangeSq  = AutoShooterRange * AutoShooterRange

	SpeedBoostMultiplier = 1.5
)

func (t PickupType) String() string {
	switch t {
	case PickupShield:
		return "SHIELD"
	case PickupAutoShooter:
		return "AUTO_SHOOTER"
	case PickupSpeedBoost:
		return "SPEED_BOOST"
	}
	return "UNKNOWN"
}

// Duration returns how long the effect of this pickup lasts
func (t PickupType) Duration() time.Duration {
	switch t {
	case PickupShield:
		return ShieldDuration
	case PickupAutoShooter:
		return AutoShooterDuration
	case PickupSpeedBoost:
		return SpeedBoostDuration
	}
	return 0
}

func (t PickupType) valid() bool {
	return t >= 0 && t < numPickupTypes
}

// ActiveEffect is a timed power-up running on a player
type ActiveEffect struct {
	Type        PickupType
	ActivatedAt time.Time
	Duration    time.Duration
	ExpiresAt   time.Time

	OriginalSpeed float64   // SpeedBoost: speed before the boost
	LastFire      time.Time // AutoShooter
}

// Effect returns the running effect of type t, or nil
func (p *Player) Effect(t PickupType) *ActiveEffect {
	if !t.valid() {
		return nil
	}
	return p.effects[t]
}

// clearEffects drops all effects without restoring anything; used when the
// player itself is going away
func (p *Player) clearEffects() {
	for i := range p.effects {
		p.effects[i] = nil
	}
}

// applyEffect starts or refreshes an effect. Reapplying resets the timer
// and never stacks the payload.
func (w *World) applyEffect(p *Player, t PickupType, now time.Time) {
	if !t.valid() {
		return
	}
	d := t.Duration()
	e := p.effects[t]
	if e == nil {
		e = &ActiveEffect{Type: t}
		p.effects[t] = e
		switch t {
		case PickupShield, PickupAutoShooter:
		case PickupSpeedBoost:
			e.OriginalSpeed = p.Speed
		}
	}
	e.ActivatedAt = now
	e.Duration = d
	e.ExpiresAt = now.Add(d)

	switch t {
	case PickupShield:
		if p.InvulnerableUntil.Before(e.ExpiresAt) {
			p.InvulnerableUntil = e.ExpiresAt
		}
	case PickupAutoShooter:
	case PickupSpeedBoost:
		p.Speed = e.OriginalSpeed * SpeedBoostMultiplier
	}
}

// removeEffect ends an effect, undoes its payload and tells the player
func (w *World) removeEffect(p *Player, t PickupType, now time.Time) {
	e := p.Effect(t)
	if e == nil {
		return
	}
	p.effects[t] = nil

	switch t {
	case PickupShield:
		if !p.InvulnerableUntil.After(e.ExpiresAt) {
			p.InvulnerableUntil = now
		}
	case PickupAutoShooter:
	case PickupSpeedBoost:
		p.Speed = e.OriginalSpeed
	}

	w.out.SendTo(p.ID, MsgPickupEffectEnded, PickupEffectEndedMsg{Type: t.String()})
}

// expireEffects removes every effect whose time is up
func (w *World) expireEffects(now time.Time) {
	for _, id := range w.order {
		p := w.players[id]
		if p == nil {
			continue
		}
		for t := PickupType(0); t < numPickupTypes; t++ {
			if e := p.effects[t]; e != nil && !now.Before(e.ExpiresAt) {
				w.removeEffect(p, t, now)
			}
		}
	}
}

// runAutoShooters fires one bullet per armed player at the nearest bot in range
func (w *World) runAutoShooters(now time.Time) {
	for _, id := range w.order {
		p := w.players[id]
		if p == nil || p.Paused {
			continue
		}
		e := p.effects[PickupAutoShooter]
		if e == nil || now.Sub(e.LastFire) < AutoShooterInterval {
			continue
		}
		target := w.nearestBot(p.X, p.Y, AutoShooterRangeSq)
		if target == nil {
			continue
		}
		e.LastFire = now
		angle := math.Atan2(target.Y-p.Y, target.X-p.X)
		b := w.spawnBullet(p.X, p.Y, angle, AutoBulletSpeed, AutoBulletColor, p.ID, FactionPlayer)
		b.FromAutoShooter = true
		w.out.Broadcast(MsgAutoShot, AutoShotMsg{
			PlayerID: p.ID,
			X:        round1(p.X),
			Y:        round1(p.Y),
			Angle:    round2(angle),
			TargetID: target.ID,
		})
	}
}

// nearestBot does a full scan; bot counts are capped low
func (w *World) nearestBot(x, y, maxDistSq float64) *Bot {
	var nearest *Bot
	best := maxDistSq
	for _, b := range w.bots {
		if b.dead {
			continue
		}
		if d2 := DistanceSq(x, y, b.X, b.Y); d2 < best {
			best = d2
			nearest = b
		}
	}
	return nearest
}
