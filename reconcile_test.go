package main

import (
	"math"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestReconcileBands(t *testing.T) {
	cases := []struct {
		name   string
		dist   float64
		wantX  float64
		wantCo Correction
	}{
		{"large snaps back", 200, 0, CorrectionHard},
		{"medium with correction", 60, 60 * ReconcileMediumPull, CorrectionSoft},
		{"medium silent", 40, 40 * ReconcileMediumPull, CorrectionNone},
		{"small", 10, 10 * ReconcileSmallPull, CorrectionNone},
	}
	for _, c := range cases {
		x, y, co := ReconcileMove(0, 0, c.dist, 0)
		if math.Abs(x-c.wantX) > 1e-9 || y != 0 || co != c.wantCo {
			t.Errorf("%s: got (%.3f,%.3f,%d), want (%.3f,0,%d)", c.name, x, y, co, c.wantX, c.wantCo)
		}
	}
}

func TestMoveHardCorrection(t *testing.T) {
	w, n, _ := newTestWorld()
	addTestPlayer(w, "p1", 500, 400, testEpoch)

	w.movePlayer("p1", MoveMsg{DX: 5, DY: 0, ClientX: fp(705), ClientY: fp(400)})

	p := w.Player("p1")
	if p.X != 505 || p.Y != 400 {
		t.Errorf("server position should hold at (505,400), got (%.1f,%.1f)", p.X, p.Y)
	}
	m, ok := n.last(MsgPositionCorrection)
	if !ok || m.To != "p1" {
		t.Fatal("expected position-correction to p1")
	}
	if c := m.Data.(PositionCorrectionMsg); c.X != 505 || c.Y != 400 {
		t.Errorf("correction should carry server coordinates, got %+v", c)
	}
}

func TestMoveSmallDriftIsSilent(t *testing.T) {
	w, n, _ := newTestWorld()
	addTestPlayer(w, "p1", 500, 400, testEpoch)

	w.movePlayer("p1", MoveMsg{DX: 5, DY: 0, ClientX: fp(515), ClientY: fp(400)})

	p := w.Player("p1")
	if math.Abs(p.X-506) > 1e-9 {
		t.Errorf("expected 10%% pull to 506, got %.3f", p.X)
	}
	if n.count(MsgPositionCorrection) != 0 {
		t.Error("small drift should not send a correction")
	}
}

func TestMoveClampsClientPosition(t *testing.T) {
	w, n, _ := newTestWorld()
	addTestPlayer(w, "p1", 3, 3, testEpoch)

	// client claims to be off the map; clamped to (0,0) it is within 5 units
	w.movePlayer("p1", MoveMsg{DX: -5, DY: -5, ClientX: fp(-300), ClientY: fp(-300)})

	p := w.Player("p1")
	if p.X != 0 || p.Y != 0 {
		t.Errorf("expected (0,0), got (%.2f,%.2f)", p.X, p.Y)
	}
	if n.count(MsgPositionCorrection) != 0 {
		t.Error("clamped client position should not need a correction")
	}
}

func TestMoveWithoutClientPosition(t *testing.T) {
	w, n, _ := newTestWorld()
	addTestPlayer(w, "p1", 500, 400, testEpoch)

	w.movePlayer("p1", MoveMsg{DX: 3, DY: -3})

	p := w.Player("p1")
	if p.X != 503 || p.Y != 397 {
		t.Errorf("expected (503,397), got (%.1f,%.1f)", p.X, p.Y)
	}
	if len(n.msgs) != 0 {
		t.Error("plain move should send nothing")
	}
}

func TestMoveIgnoredWhenPausedOrUnknown(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 500, 400, testEpoch)
	p.Paused = true

	w.movePlayer("p1", MoveMsg{DX: 5, DY: 5})
	w.movePlayer("ghost", MoveMsg{DX: 5, DY: 5})
	w.movePlayer("p1", MoveMsg{DX: math.NaN(), DY: 0})

	if p.X != 500 || p.Y != 400 {
		t.Errorf("paused player moved to (%.1f,%.1f)", p.X, p.Y)
	}
}

func TestResolveMuzzle(t *testing.T) {
	x, y := ResolveMuzzle(100, 100, nil, nil)
	if x != 100 || y != 100 {
		t.Error("missing client muzzle should use server position")
	}
	x, y = ResolveMuzzle(100, 100, fp(130), fp(100))
	if x != 130 || y != 100 {
		t.Error("close client muzzle should be trusted")
	}
	x, y = ResolveMuzzle(100, 100, fp(150), fp(100))
	if x != 100 || y != 100 {
		t.Error("client muzzle 50 units away should be rejected")
	}
	x, _ = ResolveMuzzle(100, 100, fp(math.Inf(1)), fp(100))
	if x != 100 {
		t.Error("non-finite muzzle should be rejected")
	}
}

func TestShootFanOut(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 500, 400, testEpoch)
	p.AddScore(2 * ScorePerTier)

	n := w.playerShoot("p1", ShootMsg{Angle: fp(1)}, testEpoch)
	if n != 3 {
		t.Fatalf("tier 2 should fire 3 bullets, got %d", n)
	}
	want := []float64{0.8, 1, 1.2}
	for i, h := range w.bullets.Active(nil) {
		b := w.bullets.Get(h)
		if math.Abs(b.Angle-want[i]) > 1e-9 {
			t.Errorf("bullet %d: expected angle %.1f, got %.3f", i, want[i], b.Angle)
		}
		if b.Color != p.Color || b.Speed != PlayerBulletSpeed || b.OwnerID != "p1" {
			t.Errorf("unexpected bullet %+v", *b)
		}
	}
}

func TestShootTwinSplay(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 500, 400, testEpoch)
	p.AddScore(ScorePerTier)
	p.Angle = 0

	if n := w.playerShoot("p1", ShootMsg{}, testEpoch); n != 2 {
		t.Fatalf("tier 1 should fire 2 bullets, got %d", n)
	}
	hs := w.bullets.Active(nil)
	if a, b := w.bullets.Get(hs[0]).Angle, w.bullets.Get(hs[1]).Angle; a != -0.1 || b != 0.1 {
		t.Errorf("expected angles -0.1 and 0.1, got %.2f %.2f", a, b)
	}
}

func TestShootCooldownAndPause(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 500, 400, testEpoch)

	if n := w.playerShoot("p1", ShootMsg{}, testEpoch); n != 1 {
		t.Fatalf("expected 1 bullet, got %d", n)
	}
	if n := w.playerShoot("p1", ShootMsg{}, testEpoch.Add(50*time.Millisecond)); n != 0 {
		t.Error("fired during cooldown")
	}
	p.Paused = true
	if n := w.playerShoot("p1", ShootMsg{}, testEpoch.Add(time.Second)); n != 0 {
		t.Error("paused player fired")
	}
	if n := w.playerShoot("ghost", ShootMsg{}, testEpoch.Add(time.Second)); n != 0 {
		t.Error("unknown player fired")
	}
}

func TestShootUsesTrustedMuzzle(t *testing.T) {
	w, _, _ := newTestWorld()
	addTestPlayer(w, "p1", 500, 400, testEpoch)

	w.playerShoot("p1", ShootMsg{ClientX: fp(510), ClientY: fp(405)}, testEpoch)
	b := w.bullets.Get(w.bullets.Active(nil)[0])
	if b.X != 510 || b.Y != 405 {
		t.Errorf("expected muzzle at (510,405), got (%.1f,%.1f)", b.X, b.Y)
	}
}

func TestNormalizeAngleHugeValues(t *testing.T) {
	for _, a := range []float64{1e300, -1e300, 1e17, 7 * math.Pi, -math.MaxFloat64} {
		got := NormalizeAngle(a)
		if got < -math.Pi || got > math.Pi {
			t.Errorf("NormalizeAngle(%g) = %g, outside [-pi, pi]", a, got)
		}
	}
	if got := NormalizeAngle(0.5); got != 0.5 {
		t.Errorf("small angles should pass through, got %g", got)
	}
}

func TestHugeClientAngleKeepsTickRunning(t *testing.T) {
	w, _, _ := newTestWorld()
	p := addTestPlayer(w, "p1", 500, 400, testEpoch)
	w.rotatePlayer("p1", -1e300)
	if p.Angle < -math.Pi || p.Angle > math.Pi {
		t.Errorf("stored facing %g not wrapped", p.Angle)
	}

	now := testEpoch
	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		w.playerShoot("p1", ShootMsg{Angle: fp(1e300)}, now)
	}
	w.spawnBullet(520, 400, 0, BotBulletSpeed, BotBulletColor, "b1", FactionBot)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			now = now.Add(TickDuration)
			w.Step(now)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("tick did not return with a huge client angle")
	}

	for _, h := range w.bullets.Active(nil) {
		if a := w.bullets.Get(h).Angle; a < -math.Pi || a > math.Pi {
			t.Errorf("bullet angle %g not wrapped", a)
		}
	}
}
