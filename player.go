package main

import (
	"strings"
	"time"
)

const (
	PlayerBaseSpeed   = 5.0 // max units per move input, per axis
	PlayerHitRadius   = 20.0
	PlayerHitRadiusSq = PlayerHitRadius * PlayerHitRadius
	SpawnInvulnerable = 5 * time.Second
	DefaultPlayerName = "Pilot"
	maxNameLen        = 16
)

var PlayerColors = []string{
	"#00ffff", // cyan
	"#00ff99", // spring green
	"#33ff33", // lime
	"#99ff00", // yellow-green
	"#00ccff", // sky blue
	"#0099ff", // bright blue
}

// Player is a connected pilot. Owned by the World.
type Player struct {
	ID        string
	Username  string
	Color     string
	AccountID int64 // 0 = guest

	X, Y     float64
	Angle    float64
	Speed    float64
	Score    int
	Tier     UpgradeTier
	Paused   bool
	LastShot time.Time
	JoinedAt time.Time

	InvulnerableUntil time.Time

	effects [numPickupTypes]*ActiveEffect
}

// NewPlayer creates a player at the given spawn point with the spawn grace window running
func NewPlayer(id, username, color string, x, y float64, now time.Time) *Player {
	return &Player{
		ID:                id,
		Username:          username,
		Color:             color,
		X:                 x,
		Y:                 y,
		Speed:             PlayerBaseSpeed,
		JoinedAt:          now,
		InvulnerableUntil: now.Add(SpawnInvulnerable),
	}
}

// SanitizeName trims and bounds a requested display name
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxNameLen {
		name = strings.TrimSpace(name[:maxNameLen])
	}
	if name == "" {
		return DefaultPlayerName
	}
	return name
}

// Invulnerable reports whether AI bullets pass through the player right now
func (p *Player) Invulnerable(now time.Time) bool {
	return p.InvulnerableUntil.After(now)
}

// Move applies a bounded movement delta and clamps the result to the playfield
func (p *Player) Move(dx, dy, width, height float64) {
	dx = Clamp(dx, -p.Speed, p.Speed)
	dy = Clamp(dy, -p.Speed, p.Speed)
	p.X = Clamp(p.X+dx, 0, width)
	p.Y = Clamp(p.Y+dy, 0, height)
}

// AddScore credits a kill and refreshes the upgrade tier
func (p *Player) AddScore(n int) {
	p.Score += n
	p.Tier = TierForScore(p.Score)
}

// CanFire reports whether the tier cooldown has elapsed
func (p *Player) CanFire(now time.Time) bool {
	if p.Paused {
		return false
	}
	return now.Sub(p.LastShot) >= GetTierDef(p.Tier).Cooldown
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	s := PlayerState{
		X:        round1(p.X),
		Y:        round1(p.Y),
		Angle:    round2(p.Angle),
		Username: p.Username,
		Color:    p.Color,
		Paused:   p.Paused,
		Score:    p.Score,
		Upgrade:  int(p.Tier),
	}
	for _, e := range p.effects {
		if e == nil {
			continue
		}
		if s.ActivePickups == nil {
			s.ActivePickups = make(map[string]EffectState, numPickupTypes)
		}
		s.ActivePickups[e.Type.String()] = EffectState{
			ActivatedAt: e.ActivatedAt.UnixMilli(),
			Duration:    e.Duration.Milliseconds(),
		}
	}
	return s
}
