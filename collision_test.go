package main

import (
	"testing"
	"time"
)

func TestPlayerBulletKillsBot(t *testing.T) {
	w, n, _ := newTestWorld()
	w.pickupChance = 0
	p := addTestPlayer(w, "p1", 500, 500, testEpoch)
	bot := w.addBot(200, 200)
	w.spawnBullet(205, 205, 0, PlayerBulletSpeed, p.Color, p.ID, FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.BotCount() != 0 {
		t.Errorf("expected bot removed, got %d", w.BotCount())
	}
	if w.BulletCount() != 0 {
		t.Errorf("expected bullet released, got %d", w.BulletCount())
	}
	if p.Score != 1 {
		t.Errorf("expected score 1, got %d", p.Score)
	}
	m, ok := n.last(MsgExplosion)
	if !ok {
		t.Fatal("expected explosion broadcast")
	}
	ex := m.Data.(ExplosionMsg)
	if ex.Color != BotExplosionColors || ex.Size != BotExplosionSize || ex.X != bot.X {
		t.Errorf("unexpected explosion %+v", ex)
	}
}

func TestBotKillCreditsTierUp(t *testing.T) {
	w, _, sink := newTestWorld()
	w.pickupChance = 0
	p := addTestPlayer(w, "p1", 500, 500, testEpoch)
	p.AddScore(ScorePerTier - 1)
	w.addBot(200, 200)
	w.spawnBullet(200, 200, 0, PlayerBulletSpeed, p.Color, p.ID, FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if p.Tier != TierTwin {
		t.Errorf("expected tier %d, got %d", TierTwin, p.Tier)
	}
	if len(sink.byType(EvtTierUp)) != 1 {
		t.Error("expected a tier_up event")
	}
}

func TestBotKillByDepartedOwner(t *testing.T) {
	w, n, _ := newTestWorld()
	w.pickupChance = 0
	w.addBot(200, 200)
	w.spawnBullet(200, 200, 0, PlayerBulletSpeed, "#00ffff", "gone", FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.BotCount() != 0 {
		t.Error("bullet of a departed player should still kill")
	}
	if n.count(MsgExplosion) != 1 {
		t.Errorf("expected 1 explosion, got %d", n.count(MsgExplosion))
	}
}

func TestBotDiesOnce(t *testing.T) {
	w, n, _ := newTestWorld()
	w.pickupChance = 0
	p := addTestPlayer(w, "p1", 500, 500, testEpoch)
	w.addBot(200, 200)
	w.spawnBullet(198, 200, 0, PlayerBulletSpeed, p.Color, p.ID, FactionPlayer)
	w.spawnBullet(202, 200, 0, PlayerBulletSpeed, p.Color, p.ID, FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if p.Score != 1 {
		t.Errorf("expected score 1, got %d", p.Score)
	}
	if w.BulletCount() != 1 {
		t.Errorf("second bullet should survive, got %d bullets", w.BulletCount())
	}
	if n.count(MsgExplosion) != 1 {
		t.Errorf("expected 1 explosion, got %d", n.count(MsgExplosion))
	}
}

func TestBotBulletKillsPlayer(t *testing.T) {
	w, n, sink := newTestWorld()
	p := addTestPlayer(w, "p1", 300, 300, testEpoch)
	p.AddScore(3)
	w.spawnBullet(305, 300, 0, BotBulletSpeed, BotBulletColor, "bot", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.Player("p1") != nil {
		t.Fatal("player should be removed")
	}
	if w.BulletCount() != 0 {
		t.Errorf("expected bullet released, got %d", w.BulletCount())
	}
	dead, ok := n.last(MsgDead)
	if !ok || dead.To != "p1" {
		t.Errorf("expected dead sent to p1, got %+v", dead)
	}
	ex, _ := n.last(MsgExplosion)
	if e := ex.Data.(ExplosionMsg); e.Color != PlayerExplosionColors || e.Size != PlayerExplosionSize {
		t.Errorf("unexpected explosion %+v", e)
	}
	runs := sink.byType(EvtRunEnd)
	if len(runs) != 1 || runs[0].Data.(RunRecord).Reason != RunEndKilled || runs[0].Data.(RunRecord).Score != 3 {
		t.Errorf("expected killed run record, got %+v", runs)
	}
}

func TestInvulnerablePlayerSurvives(t *testing.T) {
	w, _, _ := newTestWorld()
	// fresh spawn grace
	p := NewPlayer("p1", "p1", PlayerColors[0], 300, 300, testEpoch)
	w.addPlayer(p, testEpoch)
	w.spawnBullet(300, 300, 0, BotBulletSpeed, BotBulletColor, "bot", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch.Add(SpawnInvulnerable - time.Millisecond))
	if w.Player("p1") == nil {
		t.Fatal("player inside spawn grace was killed")
	}
	if w.BulletCount() != 1 {
		t.Error("bullet should pass through an invulnerable player")
	}

	w.resolveCollisions(testEpoch.Add(SpawnInvulnerable))
	if w.Player("p1") != nil {
		t.Error("player should die once the grace is over")
	}
}

func TestPausedPlayerSurvives(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 300, 300, testEpoch)
	p.Paused = true
	w.spawnBullet(300, 300, 0, BotBulletSpeed, BotBulletColor, "bot", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.Player("p1") == nil {
		t.Error("paused player was killed")
	}
}

func TestPlayerBulletsDoNotHurtPlayers(t *testing.T) {
	w, _, _ := newTestWorld()
	addTestPlayer(w, "p1", 300, 300, testEpoch)
	w.spawnBullet(300, 300, 0, PlayerBulletSpeed, "#00ffff", "p2", FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.Player("p1") == nil {
		t.Error("player killed by a player bullet")
	}
}

func TestOpposingBulletsCancel(t *testing.T) {
	w, n, _ := newTestWorld()
	w.spawnBullet(400, 400, 0, PlayerBulletSpeed, "#00ffff", "p1", FactionPlayer)
	w.spawnBullet(408, 400, 0, BotBulletSpeed, BotBulletColor, "bot", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.BulletCount() != 0 {
		t.Errorf("expected both bullets released, got %d", w.BulletCount())
	}
	m, ok := n.last(MsgExplosion)
	if !ok {
		t.Fatal("expected explosion")
	}
	if e := m.Data.(ExplosionMsg); e.Color != BulletExplosionColors || e.Size != BulletExplosionSize {
		t.Errorf("unexpected explosion %+v", e)
	}
}

func TestFriendlyBulletsPassThrough(t *testing.T) {
	w, n, _ := newTestWorld()
	w.spawnBullet(400, 400, 0, PlayerBulletSpeed, "#00ffff", "p1", FactionPlayer)
	w.spawnBullet(401, 400, 0, PlayerBulletSpeed, "#00ffff", "p2", FactionPlayer)
	w.spawnBullet(600, 400, 0, BotBulletSpeed, BotBulletColor, "b1", FactionBot)
	w.spawnBullet(601, 400, 0, BotBulletSpeed, BotBulletColor, "b2", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.BulletCount() != 4 {
		t.Errorf("same-faction bullets should not collide, got %d", w.BulletCount())
	}
	if n.count(MsgExplosion) != 0 {
		t.Error("unexpected explosion")
	}
}

func TestReleasedBulletSkippedByLaterPasses(t *testing.T) {
	w, n, _ := newTestWorld()
	w.pickupChance = 0
	w.addBot(200, 200)
	w.spawnBullet(200, 200, 0, PlayerBulletSpeed, "#00ffff", "p1", FactionPlayer)
	w.spawnBullet(205, 200, 0, BotBulletSpeed, BotBulletColor, "bot", FactionBot)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	// the player bullet was spent on the bot, so the bot bullet lives on
	if w.BulletCount() != 1 {
		t.Errorf("expected 1 bullet, got %d", w.BulletCount())
	}
	if n.count(MsgExplosion) != 1 {
		t.Errorf("expected only the bot explosion, got %d", n.count(MsgExplosion))
	}
}

func TestBulletOutsideHitRadiusMisses(t *testing.T) {
	w, _, _ := newTestWorld()
	w.addBot(200, 200)
	w.spawnBullet(221, 200, 0, PlayerBulletSpeed, "#00ffff", "p1", FactionPlayer)

	w.indexGrid()
	w.resolveCollisions(testEpoch)

	if w.BotCount() != 1 {
		t.Error("bullet 21 units away should miss")
	}
}
