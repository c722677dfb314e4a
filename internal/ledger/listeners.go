package ledger

import "sync"

type registration struct {
	id    uint64
	fn    Listener
	// since is the commit sequence at registration; only later commits reach fn.
	since uint64
}

// registry keeps listeners in registration order. Each registration has its
// own id, so registering the same function twice yields two independent entries.
type registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []registration
}

func (r *registry) add(fn Listener, since uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, registration{id: r.nextID, fn: fn, since: since})
	return r.nextID
}

func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry) snapshot() []registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]registration, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// delivery is one queued notification. A non-zero target limits it to a
// single registration (the replay on registration).
type delivery struct {
	seq     uint64
	balance int64
	target  uint64
}

// dispatcher delivers queued notifications strictly in enqueue order. Whoever
// finds it idle drains the queue; callers arriving during a drain, including
// re-entrant calls from listeners, only enqueue.
type dispatcher struct {
	mu       sync.Mutex
	pending  []delivery
	draining bool
}

func (d *dispatcher) enqueue(e delivery) {
	d.mu.Lock()
	d.pending = append(d.pending, e)
	d.mu.Unlock()
}

func (d *dispatcher) drain(deliver func(delivery)) {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for len(d.pending) > 0 {
		e := d.pending[0]
		d.pending = d.pending[1:]
		d.mu.Unlock()
		deliver(e)
		d.mu.Lock()
	}
	d.pending = nil
	d.draining = false
	d.mu.Unlock()
}
