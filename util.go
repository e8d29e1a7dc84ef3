package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random (v4) UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// DistanceSq returns the squared distance between two points
func DistanceSq(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// NormalizeAngle wraps angle to [-PI, PI] in constant time, whatever its magnitude
func NormalizeAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}

// TurnToward rotates from toward target along the short path by at most maxTurn radians.
// Returns the new angle, wrapped, and the wrapped difference that was measured before turning.
func TurnToward(from, target, maxTurn float64) (float64, float64) {
	diff := NormalizeAngle(target - from)
	step := math.Min(math.Abs(diff), maxTurn)
	if diff < 0 {
		step = -step
	}
	return NormalizeAngle(from + step), diff
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
