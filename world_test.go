package main

import (
	"sync"
	"testing"
	"time"
)

// sentMsg is one message captured by recordingNotifier. To is empty for broadcasts.
type sentMsg struct {
	To   string
	T    string
	Data interface{}
}

// recordingNotifier captures world events for assertions
type recordingNotifier struct {
	msgs []sentMsg
}

func (n *recordingNotifier) Broadcast(msgType string, data interface{}) {
	n.msgs = append(n.msgs, sentMsg{T: msgType, Data: data})
}

func (n *recordingNotifier) SendTo(id string, msgType string, data interface{}) {
	n.msgs = append(n.msgs, sentMsg{To: id, T: msgType, Data: data})
}

func (n *recordingNotifier) count(msgType string) int {
	c := 0
	for _, m := range n.msgs {
		if m.T == msgType {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) last(msgType string) (sentMsg, bool) {
	for i := len(n.msgs) - 1; i >= 0; i-- {
		if n.msgs[i].T == msgType {
			return n.msgs[i], true
		}
	}
	return sentMsg{}, false
}

type trackedEvent struct {
	Type      string
	AccountID int64
	Data      interface{}
}

// recordingSink captures analytics events
type recordingSink struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (s *recordingSink) Track(evtType string, accountID int64, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, trackedEvent{Type: evtType, AccountID: accountID, Data: data})
}

func (s *recordingSink) byType(evtType string) []trackedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []trackedEvent
	for _, e := range s.events {
		if e.Type == evtType {
			out = append(out, e)
		}
	}
	return out
}

var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestWorld() (*World, *recordingNotifier, *recordingSink) {
	n := &recordingNotifier{}
	s := &recordingSink{}
	w := NewWorld(DefaultSimConfig(), n, s, 1)
	return w, n, s
}

// addTestPlayer puts a player in the world with its spawn grace already over
func addTestPlayer(w *World, id string, x, y float64, now time.Time) *Player {
	p := NewPlayer(id, id, PlayerColors[0], x, y, now)
	p.InvulnerableUntil = now.Add(-time.Second)
	w.addPlayer(p, now)
	return p
}

func TestWorldStepClearsArenaWhenEmpty(t *testing.T) {
	w, _, _ := newTestWorld()
	w.addBot(100, 100)
	w.spawnBullet(200, 200, 0, BotBulletSpeed, BotBulletColor, "b", FactionBot)
	w.spawnPickup(300, 300, PickupShield, testEpoch)

	w.Step(testEpoch)

	if w.BotCount() != 0 || w.BulletCount() != 0 || len(w.Pickups()) != 0 {
		t.Errorf("expected empty arena, got %d bots %d bullets %d pickups",
			w.BotCount(), w.BulletCount(), len(w.Pickups()))
	}
	if w.Tick != 1 {
		t.Errorf("tick should still advance, got %d", w.Tick)
	}
}

func TestWorldRemovePlayerRecordsRun(t *testing.T) {
	w, _, sink := newTestWorld()
	p := addTestPlayer(w, "p1", 100, 100, testEpoch)
	p.AccountID = 9
	p.AddScore(60)

	w.removePlayer("p1", testEpoch.Add(42*time.Second), RunEndDisconnect)

	if w.Player("p1") != nil {
		t.Fatal("player should be gone")
	}
	runs := sink.byType(EvtRunEnd)
	if len(runs) != 1 {
		t.Fatalf("expected 1 run_end event, got %d", len(runs))
	}
	rec := runs[0].Data.(RunRecord)
	if rec.Score != 60 || rec.Tier != TierTwin || rec.Seconds != 42 || rec.Reason != RunEndDisconnect {
		t.Errorf("unexpected run record %+v", rec)
	}
	if runs[0].AccountID != 9 {
		t.Errorf("expected account 9, got %d", runs[0].AccountID)
	}

	// second removal is a no-op
	w.removePlayer("p1", testEpoch, RunEndKilled)
	if len(sink.byType(EvtRunEnd)) != 1 {
		t.Error("removing an unknown player should not record a run")
	}
}

func TestWorldSetDimensions(t *testing.T) {
	w, _, _ := newTestWorld()
	if w.SetDimensions(0, 500) {
		t.Error("zero width should be rejected")
	}
	if !w.SetDimensions(1920, 1080) {
		t.Fatal("valid size rejected")
	}
	if w.Width != 1920 || w.Height != 1080 {
		t.Errorf("expected 1920x1080, got %.0fx%.0f", w.Width, w.Height)
	}
	w.SetDimensions(1e6, 1e6)
	if w.Width != MaxArenaSide || w.Height != MaxArenaSide {
		t.Errorf("dimensions should cap at %v", MaxArenaSide)
	}
}

func TestWorldPlayerOrderStable(t *testing.T) {
	w, _, _ := newTestWorld()
	for _, id := range []string{"a", "b", "c"} {
		addTestPlayer(w, id, 0, 0, testEpoch)
	}
	w.removePlayer("b", testEpoch, RunEndDisconnect)

	var seen []string
	w.eachPlayer(func(p *Player) { seen = append(seen, p.ID) })
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Errorf("expected [a c], got %v", seen)
	}
}
