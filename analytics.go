package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtRunStart     = "run_start"
	EvtRunEnd       = "run_end"
	EvtTierUp       = "tier_up"
	EvtRegister     = "register"
)

// Why a run ended
const (
	RunEndKilled     = "killed"
	RunEndDisconnect = "disconnect"
)

const (
	analyticsQueueSize  = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 5 * time.Second
)

// RunRecord is the payload of a run_end event
type RunRecord struct {
	Username string      `json:"username"`
	Score    int         `json:"score"`
	Tier     UpgradeTier `json:"tier"`
	Seconds  float64     `json:"seconds"`
	Reason   string      `json:"reason"`
}

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64 // account id, 0 for guests
	Data      string
	Run       *RunRecord
	Timestamp time.Time
}

type pendingEvent struct {
	evtType  string
	playerID int64
	data     interface{}
	at       time.Time
}

// Analytics handles event tracking with batched background writes.
// It implements EventSink.
type Analytics struct {
	db     *DB
	events chan pendingEvent
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the analytics background writer. A nil db
// discards every event.
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan pendingEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking). data is
// encoded on the writer goroutine, so callers must not mutate it afterwards.
func (a *Analytics) Track(evtType string, playerID int64, data interface{}) {
	select {
	case a.events <- pendingEvent{evtType: evtType, playerID: playerID, data: data, at: time.Now().UTC()}:
	default:
		// queue full, drop
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were lost to a full queue
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop flushes what is queued and shuts the writer down
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case pe := <-a.events:
			batch = append(batch, encodeEvent(pe))
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain what is already queued; Track never blocks so the
			// channel stays open
		drain:
			for {
				select {
				case pe := <-a.events:
					batch = append(batch, encodeEvent(pe))
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

func encodeEvent(pe pendingEvent) AnalyticsEvent {
	evt := AnalyticsEvent{Type: pe.evtType, PlayerID: pe.playerID, Timestamp: pe.at}
	switch d := pe.data.(type) {
	case nil:
	case string:
		evt.Data = d
	case RunRecord:
		evt.Run = &d
		if raw, err := json.Marshal(d); err == nil {
			evt.Data = string(raw)
		}
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			log.Printf("analytics: marshal %s: %v", pe.evtType, err)
			break
		}
		evt.Data = string(raw)
	}
	return evt
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	if err := a.db.InsertBatch(events); err != nil {
		log.Printf("analytics: flush error: %v", err)
	}
}
