package main

import "time"

// UpgradeTier is derived from score and gates fire rate and shot fan-out
type UpgradeTier int

const (
	TierSingle UpgradeTier = 0
	TierTwin   UpgradeTier = 1
	TierTriple UpgradeTier = 2

	ScorePerTier = 50
)

// TierDef holds the weapon stats for a tier
type TierDef struct {
	Cooldown time.Duration
	Offsets  []float64 // angle offset of each bullet in a volley, radians
}

var Tiers = [3]TierDef{
	// Single: one bullet, 100ms cooldown
	{Cooldown: 100 * time.Millisecond, Offsets: []float64{0}},
	// Twin: two bullets splayed, faster cooldown
	{Cooldown: 50 * time.Millisecond, Offsets: []float64{-0.1, 0.1}},
	// Triple: three-way fan
	{Cooldown: 50 * time.Millisecond, Offsets: []float64{-0.2, 0, 0.2}},
}

// TierForScore returns the tier a score earns
func TierForScore(score int) UpgradeTier {
	t := UpgradeTier(score / ScorePerTier)
	if t < TierSingle {
		return TierSingle
	}
	if t > TierTriple {
		return TierTriple
	}
	return t
}

// GetTierDef returns the definition for a tier
func GetTierDef(t UpgradeTier) TierDef {
	if t < 0 || int(t) >= len(Tiers) {
		return Tiers[TierSingle]
	}
	return Tiers[t]
}
