package main

import (
	"math"
	"time"
)

// Squared-distance bands between the server position and the position the
// client predicted. Tuned at 60 Hz.
const (
	ReconcileHardSq     = 10000.0 // beyond 100 units: snap the client back
	ReconcileCorrectSq  = 2500.0  // medium band: also tell the client
	ReconcileMediumSq   = 1024.0  // beyond 32 units: medium band
	ReconcileMediumPull = 0.05    // share of the gap the server gives up
	ReconcileSmallPull  = 0.10

	MuzzleTrustSq = 2500.0 // client muzzle accepted within 50 units
)

// Correction is the outcome of one reconciliation
type Correction int

const (
	CorrectionNone Correction = iota // server nudged silently
	CorrectionSoft                   // server nudged and told the client
	CorrectionHard                   // client snapped to server truth
)

// ReconcileMove blends the authoritative position (sx, sy) toward the
// client's prediction (cx, cy). The client position must already be clamped
// into the playfield.
func ReconcileMove(sx, sy, cx, cy float64) (x, y float64, c Correction) {
	d2 := DistanceSq(sx, sy, cx, cy)
	switch {
	case d2 > ReconcileHardSq:
		return sx, sy, CorrectionHard
	case d2 > ReconcileMediumSq:
		x = sx + (cx-sx)*ReconcileMediumPull
		y = sy + (cy-sy)*ReconcileMediumPull
		if d2 > ReconcileCorrectSq {
			return x, y, CorrectionSoft
		}
		return x, y, CorrectionNone
	default:
		return sx + (cx-sx)*ReconcileSmallPull, sy + (cy-sy)*ReconcileSmallPull, CorrectionNone
	}
}

// ResolveMuzzle picks where a volley starts: the client's muzzle when it is
// close to the server position, else the server position
func ResolveMuzzle(sx, sy float64, cx, cy *float64) (float64, float64) {
	if cx == nil || cy == nil || !finite(*cx) || !finite(*cy) {
		return sx, sy
	}
	if DistanceSq(sx, sy, *cx, *cy) < MuzzleTrustSq {
		return *cx, *cy
	}
	return sx, sy
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// movePlayer applies a move intent and reconciles against the client's
// reported position, if any
func (w *World) movePlayer(id string, m MoveMsg) {
	p := w.players[id]
	if p == nil || p.Paused || !finite(m.DX) || !finite(m.DY) {
		return
	}
	p.Move(m.DX, m.DY, w.Width, w.Height)
	if m.ClientX == nil || m.ClientY == nil || !finite(*m.ClientX) || !finite(*m.ClientY) {
		return
	}
	cx := Clamp(*m.ClientX, 0, w.Width)
	cy := Clamp(*m.ClientY, 0, w.Height)

	x, y, c := ReconcileMove(p.X, p.Y, cx, cy)
	p.X, p.Y = x, y
	switch c {
	case CorrectionHard, CorrectionSoft:
		w.out.SendTo(p.ID, MsgPositionCorrection, PositionCorrectionMsg{X: round1(p.X), Y: round1(p.Y)})
	case CorrectionNone:
	}
}

func (w *World) rotatePlayer(id string, angle float64) {
	p := w.players[id]
	if p == nil || !finite(angle) {
		return
	}
	p.Angle = NormalizeAngle(angle)
}

func (w *World) pausePlayer(id string, paused bool) {
	if p := w.players[id]; p != nil {
		p.Paused = paused
	}
}

// playerShoot fires one volley with the tier's fan-out. Returns the number
// of bullets fired.
func (w *World) playerShoot(id string, m ShootMsg, now time.Time) int {
	p := w.players[id]
	if p == nil || !p.CanFire(now) {
		return 0
	}
	x, y := ResolveMuzzle(p.X, p.Y, m.ClientX, m.ClientY)
	angle := p.Angle
	if m.Angle != nil && finite(*m.Angle) {
		angle = NormalizeAngle(*m.Angle)
	}
	offsets := GetTierDef(p.Tier).Offsets
	for _, off := range offsets {
		w.spawnBullet(x, y, angle+off, PlayerBulletSpeed, p.Color, p.ID, FactionPlayer)
	}
	p.LastShot = now
	return len(offsets)
}
