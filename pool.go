package main

const initialBulletSlots = 512

// BulletHandle is a slot index into the BulletPool. It is only meaningful
// until the slot is released; released slots are reused by the next Obtain.
type BulletHandle int

// BulletPool is fixed-capacity reusable slot storage for bullets.
// Obtain never fails: when every slot is active the backing store grows.
type BulletPool struct {
	slots  []Bullet
	free   []BulletHandle // released slots, reused LIFO
	active int
}

// NewBulletPool creates a pool with capacity slots preallocated
func NewBulletPool(capacity int) *BulletPool {
	p := &BulletPool{
		slots: make([]Bullet, 0, capacity),
		free:  make([]BulletHandle, 0, capacity),
	}
	return p
}

// Obtain returns an active slot with zeroed fields
func (p *BulletPool) Obtain() BulletHandle {
	var h BulletHandle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
		p.slots[h] = Bullet{}
	} else {
		h = BulletHandle(len(p.slots))
		p.slots = append(p.slots, Bullet{})
	}
	p.slots[h].Active = true
	p.active++
	return h
}

// Release marks a slot inactive. Releasing a free or unknown slot is a no-op.
func (p *BulletPool) Release(h BulletHandle) {
	if h < 0 || int(h) >= len(p.slots) || !p.slots[h].Active {
		return
	}
	p.slots[h].Active = false
	p.free = append(p.free, h)
	p.active--
}

// Get returns the bullet stored in slot h
func (p *BulletPool) Get(h BulletHandle) *Bullet {
	return &p.slots[h]
}

// IsActive reports whether h refers to an active slot
func (p *BulletPool) IsActive(h BulletHandle) bool {
	return h >= 0 && int(h) < len(p.slots) && p.slots[h].Active
}

// Active appends the handles of all active slots, in slot order, to buf
func (p *BulletPool) Active(buf []BulletHandle) []BulletHandle {
	for i := range p.slots {
		if p.slots[i].Active {
			buf = append(buf, BulletHandle(i))
		}
	}
	return buf
}

// Len returns the number of active bullets
func (p *BulletPool) Len() int {
	return p.active
}

// Cap returns the number of slots in the backing store
func (p *BulletPool) Cap() int {
	return len(p.slots)
}

// Reset releases every slot
func (p *BulletPool) Reset() {
	p.slots = p.slots[:0]
	p.free = p.free[:0]
	p.active = 0
}
