package main

import "time"

const (
	PickupDespawnTime  = 5 * time.Second
	PickupSpawnChance  = 0.2
	PickupCollectRange = 120.0 // sanity bound between player and pickup
	PickupCollectSq    = PickupCollectRange * PickupCollectRange
)

// Pickup is loot dropped by a destroyed bot
type Pickup struct {
	ID        string
	X, Y      float64
	Type      PickupType
	CreatedAt time.Time
}

// ToState converts to protocol state
func (p *Pickup) ToState() PickupState {
	return PickupState{
		ID:        p.ID,
		X:         round1(p.X),
		Y:         round1(p.Y),
		Type:      p.Type.String(),
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

// Expired reports whether the pickup has outlived its despawn time
func (p *Pickup) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) >= PickupDespawnTime
}

// trySpawnPickup rolls the drop chance and, on success, places a random pickup
func (w *World) trySpawnPickup(x, y float64, now time.Time) *Pickup {
	if w.rng.Float64() >= w.pickupChance {
		return nil
	}
	return w.spawnPickup(x, y, PickupType(w.rng.Intn(numPickupTypes)), now)
}

func (w *World) spawnPickup(x, y float64, t PickupType, now time.Time) *Pickup {
	p := &Pickup{
		ID:        GenerateUUID(),
		X:         x,
		Y:         y,
		Type:      t,
		CreatedAt: now,
	}
	w.pickups = append(w.pickups, p)
	w.out.Broadcast(MsgPickupSpawned, p.ToState())
	return p
}

// expirePickups keeps the live pickups and announces the rest as despawned
func (w *World) expirePickups(now time.Time) {
	next := w.nextPicks[:0]
	for _, p := range w.pickups {
		if p.Expired(now) {
			w.out.Broadcast(MsgPickupDespawned, PickupDespawnedMsg{PickupID: p.ID})
			continue
		}
		next = append(next, p)
	}
	w.nextPicks = w.pickups[:0]
	w.pickups = next
}

// collectPickup hands a pickup to a player. Unknown or expired ids, unknown
// players and players too far from the pickup are ignored.
func (w *World) collectPickup(playerID, pickupID string, now time.Time) bool {
	player := w.players[playerID]
	if player == nil || player.Paused {
		return false
	}
	idx := -1
	for i, p := range w.pickups {
		if p.ID == pickupID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	pk := w.pickups[idx]
	if pk.Expired(now) {
		// gone already; the tick just has not swept it yet
		w.expirePickups(now)
		return false
	}
	if DistanceSq(player.X, player.Y, pk.X, pk.Y) > PickupCollectSq {
		return false
	}

	next := w.nextPicks[:0]
	for i, p := range w.pickups {
		if i != idx {
			next = append(next, p)
		}
	}
	w.nextPicks = w.pickups[:0]
	w.pickups = next

	w.applyEffect(player, pk.Type, now)
	w.out.Broadcast(MsgPickupCollected, PickupCollectedMsg{
		PickupID: pk.ID,
		PlayerID: player.ID,
		Type:     pk.Type.String(),
		X:        round1(pk.X),
		Y:        round1(pk.Y),
	})
	return true
}

// Pickups returns the live pickups. The slice is owned by the World.
func (w *World) Pickups() []*Pickup {
	return w.pickups
}
