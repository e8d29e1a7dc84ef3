package main

import (
	"math"
	"time"
)

const (
	BotSpeed     = 2.0 // units per tick
	BotTurnRate  = 0.1 // radians per tick
	BotHitRadius = 20.0
	BotHitSq     = BotHitRadius * BotHitRadius
	BotEdgeSlack = 50.0 // bots are removed this far outside the playfield

	BotFireCone     = math.Pi / 6
	BotFireCooldown = 1000 * time.Millisecond
	BotFireChance   = 0.01

	// Flocking
	FlockRadius       = 100.0
	FlockRadiusSq     = FlockRadius * FlockRadius
	FlockMaxNeighbors = 5
	SeparationWeight  = 0.5
	AlignmentWeight   = 0.3
	CohesionWeight    = 0.3
	PursuitBaseWeight = 4.0
	PursuitNearBonus  = 6.0
	PursuitNearRange  = 600.0

	// Spawn controller
	BotSpawnEvery         = 30 // ticks
	BotSpawnAttempts      = 10
	BotSpawnInset         = 50.0
	BotMinSpawnDist       = 500.0
	BotMinSpawnDistSq     = BotMinSpawnDist * BotMinSpawnDist
	BaseMaxBots           = 10
	BotsPerDifficulty     = 2
	HardMaxBots           = 30
	BotSpawnRate          = 2.0
	BotSpawnRatePerTier   = 0.5
	DifficultyInterval    = 30 * time.Second
	MinDifficulty         = 1
	DifficultyPlayerScale = 1.5
)

var BotColors = []string{
	"#ff0000", // red
	"#ff3300", // orange-red
	"#ff6600", // orange
	"#ff9900", // dark orange
}

// Bot is an AI-controlled opponent
type Bot struct {
	ID       string
	X, Y     float64
	Angle    float64
	Color    string
	LastShot time.Time

	dead bool // set by the collision pass, dropped by the next retain pass
}

// OnScreen reports whether the bot is inside the visible playfield
func (b *Bot) OnScreen(width, height float64) bool {
	return b.X >= 0 && b.X <= width && b.Y >= 0 && b.Y <= height
}

// Escaped reports whether the bot wandered too far outside the playfield
func (b *Bot) Escaped(width, height float64) bool {
	return b.X < -BotEdgeSlack || b.X > width+BotEdgeSlack ||
		b.Y < -BotEdgeSlack || b.Y > height+BotEdgeSlack
}

// ToState converts to protocol state
func (b *Bot) ToState() BotState {
	return BotState{
		ID:    b.ID,
		X:     round1(b.X),
		Y:     round1(b.Y),
		Angle: round2(b.Angle),
		Color: b.Color,
	}
}

// nearestTarget returns the closest non-paused player. Ties go to the
// earlier joiner.
func (w *World) nearestTarget(x, y float64) *Player {
	var target *Player
	best := math.Inf(1)
	for _, id := range w.order {
		p := w.players[id]
		if p == nil || p.Paused {
			continue
		}
		if d2 := DistanceSq(x, y, p.X, p.Y); d2 < best {
			best = d2
			target = p
		}
	}
	return target
}

// advanceBots steers, moves and fires every bot, then keeps the ones still
// inside the playfield slack. The grid must hold this tick's bot indices.
func (w *World) advanceBots(now time.Time) {
	next := w.nextBots[:0]
	for i, bot := range w.bots {
		if target := w.nearestTarget(bot.X, bot.Y); target != nil {
			w.steerBot(i, bot, target, now)
		}
		bot.X += math.Cos(bot.Angle) * BotSpeed
		bot.Y += math.Sin(bot.Angle) * BotSpeed
		if bot.Escaped(w.Width, w.Height) {
			continue
		}
		next = append(next, bot)
	}
	w.nextBots = w.bots[:0]
	w.bots = next
}

// steerBot turns the bot toward a blend of pursuit and flocking, and fires
// when the target sits inside its cone
func (w *World) steerBot(idx int, bot *Bot, target *Player, now time.Time) {
	dx := target.X - bot.X
	dy := target.Y - bot.Y
	dist := math.Hypot(dx, dy)
	targetAngle := math.Atan2(dy, dx)

	desiredX, desiredY := math.Cos(targetAngle), math.Sin(targetAngle)
	onScreen := bot.OnScreen(w.Width, w.Height)
	if onScreen {
		if fx, fy, ok := w.flockVector(idx, bot); ok {
			pursuit := PursuitBaseWeight + PursuitNearBonus*Clamp(1-dist/PursuitNearRange, 0, 1)
			desiredX = desiredX*pursuit + fx
			desiredY = desiredY*pursuit + fy
		}
	}

	bot.Angle, _ = TurnToward(bot.Angle, math.Atan2(desiredY, desiredX), BotTurnRate)

	if !onScreen {
		return
	}
	aimErr := math.Abs(NormalizeAngle(targetAngle - bot.Angle))
	if aimErr < BotFireCone &&
		now.Sub(bot.LastShot) >= BotFireCooldown &&
		w.rng.Float64() < BotFireChance {
		w.spawnBullet(bot.X, bot.Y, bot.Angle, BotBulletSpeed, BotBulletColor, bot.ID, FactionBot)
		bot.LastShot = now
	}
}

// flockVector returns the boid steering vector from the nearest neighbours
// of the bot, scaled so its length is at most one
func (w *World) flockVector(idx int, bot *Bot) (float64, float64, bool) {
	var near [FlockMaxNeighbors]*Bot
	var nearD [FlockMaxNeighbors]float64
	n := 0

	w.refBuf = w.grid.QueryBuf(bot.X, bot.Y, FlockSearchCells, w.refBuf[:0])
	for _, ref := range w.refBuf {
		if ref.Kind != RefBot || ref.Idx == idx || ref.Idx >= len(w.bots) {
			continue
		}
		o := w.bots[ref.Idx]
		d2 := DistanceSq(bot.X, bot.Y, o.X, o.Y)
		if d2 >= FlockRadiusSq {
			continue
		}
		// keep the FlockMaxNeighbors closest, sorted by distance
		if n == FlockMaxNeighbors && d2 >= nearD[n-1] {
			continue
		}
		j := n
		if n < FlockMaxNeighbors {
			n++
		} else {
			j = n - 1
		}
		for j > 0 && nearD[j-1] > d2 {
			near[j] = near[j-1]
			nearD[j] = nearD[j-1]
			j--
		}
		near[j] = o
		nearD[j] = d2
	}
	if n == 0 {
		return 0, 0, false
	}

	var sepX, sepY, alignX, alignY, cx, cy float64
	for _, o := range near[:n] {
		dx := bot.X - o.X
		dy := bot.Y - o.Y
		if d := math.Hypot(dx, dy); d > 0 {
			sepX += dx / d
			sepY += dy / d
		}
		alignX += math.Cos(o.Angle)
		alignY += math.Sin(o.Angle)
		cx += o.X
		cy += o.Y
	}
	cx /= float64(n)
	cy /= float64(n)

	sepX, sepY = unit(sepX, sepY)
	alignX, alignY = unit(alignX, alignY)
	cohX, cohY := unit(cx-bot.X, cy-bot.Y)

	total := SeparationWeight + AlignmentWeight + CohesionWeight
	fx := (sepX*SeparationWeight + alignX*AlignmentWeight + cohX*CohesionWeight) / total
	fy := (sepY*SeparationWeight + alignY*AlignmentWeight + cohY*CohesionWeight) / total
	return fx, fy, true
}

func unit(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// difficulty grows one step per DifficultyInterval, capped by head count
func (w *World) difficulty(now time.Time) int {
	n := len(w.players)
	if n == 0 {
		return MinDifficulty
	}
	byTime := int(now.Sub(w.difficultyBase) / DifficultyInterval)
	byPlayers := int(math.Ceil(float64(n) * DifficultyPlayerScale))
	d := byTime
	if byPlayers < d {
		d = byPlayers
	}
	if d < MinDifficulty {
		d = MinDifficulty
	}
	return d
}

// easeDifficulty takes one step off the time-based difficulty
func (w *World) easeDifficulty(now time.Time) {
	w.difficultyBase = w.difficultyBase.Add(DifficultyInterval)
	if w.difficultyBase.After(now) {
		w.difficultyBase = now
	}
}

// MaxBots is the bot cap for a difficulty level
func MaxBots(difficulty int) int {
	n := BaseMaxBots + difficulty*BotsPerDifficulty
	if n > HardMaxBots {
		n = HardMaxBots
	}
	return n
}

// spawnBots adds at most one bot per round, scaled by the players' tiers
func (w *World) spawnBots(now time.Time) {
	if len(w.players) == 0 || len(w.bots) >= MaxBots(w.difficulty(now)) {
		return
	}
	tiers := 0
	for _, p := range w.players {
		tiers += int(p.Tier)
	}
	avgTier := float64(tiers) / float64(len(w.players))
	chance := BotSpawnRate * (1 + avgTier*BotSpawnRatePerTier)
	if w.rng.Float64() >= chance {
		return
	}
	for attempt := 0; attempt < BotSpawnAttempts; attempt++ {
		if x, y, ok := w.findSpawnPoint(); ok {
			w.addBot(x, y)
			return
		}
	}
}

// findSpawnPoint picks a random point on a random edge, rejecting it when
// any player is too close
func (w *World) findSpawnPoint() (float64, float64, bool) {
	inset := BotSpawnInset
	spanX := math.Max(w.Width-2*inset, 0)
	spanY := math.Max(w.Height-2*inset, 0)
	var x, y float64
	switch w.rng.Intn(4) {
	case 0: // top
		x, y = w.rng.Float64()*spanX+inset, inset
	case 1: // right
		x, y = w.Width-inset, w.rng.Float64()*spanY+inset
	case 2: // bottom
		x, y = w.rng.Float64()*spanX+inset, w.Height-inset
	default: // left
		x, y = inset, w.rng.Float64()*spanY+inset
	}
	for _, p := range w.players {
		if DistanceSq(x, y, p.X, p.Y) < BotMinSpawnDistSq {
			return 0, 0, false
		}
	}
	return x, y, true
}

func (w *World) addBot(x, y float64) *Bot {
	b := &Bot{
		ID:    GenerateID(4),
		X:     x,
		Y:     y,
		Angle: math.Atan2(w.Height/2-y, w.Width/2-x),
		Color: BotColors[w.rng.Intn(len(BotColors))],
	}
	w.bots = append(w.bots, b)
	return b
}

// Bots returns the live bots. The slice is owned by the World.
func (w *World) Bots() []*Bot {
	return w.bots
}
