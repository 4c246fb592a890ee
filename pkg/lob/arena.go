package lob

// handle is a stable, generation-checked reference to a resident
// order slot. Handles stay valid across unrelated insertions and
// removals; a handle whose generation no longer matches its slot is
// stale and resolves to nil.
type handle struct {
	idx int32
	gen uint32
}

type slot struct {
	gen  uint32
	live bool
	ord  Order
}

// arena is a slab allocator for resident orders. FIFO queues and the
// id index both refer to orders through handles, so neither can hold
// a pointer that goes stale when the slab grows or a slot is reused.
type arena struct {
	slots []slot
	free  []int32
}

func (a *arena) alloc(o Order) handle {
	var idx int32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = int32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.live = true
	s.ord = o
	return handle{idx: idx, gen: s.gen}
}

// get resolves a handle to its resident order, or nil if the handle
// is stale or out of range.
func (a *arena) get(h handle) *Order {
	if h.idx < 0 || int(h.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.idx]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return &s.ord
}

// release frees the slot behind h and bumps its generation so any
// remaining copies of the handle become stale.
func (a *arena) release(h handle) bool {
	if a.get(h) == nil {
		return false
	}
	s := &a.slots[h.idx]
	s.live = false
	s.gen++
	s.ord = Order{}
	a.free = append(a.free, h.idx)
	return true
}

func (a *arena) len() int {
	return len(a.slots) - len(a.free)
}
