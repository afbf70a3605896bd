package structure

// Arena is a slot allocator with a free list. Values live in one backing
// slice and are addressed by Handle, so resting orders are not individually
// heap allocated and freed slots are recycled.
//
// Every slot also carries prev/next links, which lets a List thread FIFO
// queues through the arena without any extra allocation.
//
// A pointer returned by Get is only valid until the next Alloc, because
// Alloc may grow the backing slice.

const (
	// NullHandle marks the absence of a slot.
	NullHandle Handle = -1

	// DefaultArenaCapacity is used when NewArena is given a non-positive capacity.
	DefaultArenaCapacity = 1024

	arenaGrowthFactor = 2
)

// Handle addresses a slot in an Arena.
type Handle int32

type slot[T any] struct {
	value T
	prev  Handle
	next  Handle
	used  bool
}

// Arena is not safe for concurrent use.
type Arena[T any] struct {
	slots    []slot[T]
	freeHead Handle
	count    int
}

// NewArena creates an arena with pre-allocated capacity.
func NewArena[T any](capacity int) *Arena[T] {
	if capacity <= 0 {
		capacity = DefaultArenaCapacity
	}

	a := &Arena[T]{
		slots: make([]slot[T], capacity),
	}
	a.linkFree(0, capacity, NullHandle)
	a.freeHead = 0

	return a
}

// linkFree chains slots [from, to) into a free list ending at tail.
func (a *Arena[T]) linkFree(from, to int, tail Handle) {
	for i := from; i < to-1; i++ {
		a.slots[i].next = Handle(i + 1)
		a.slots[i].prev = NullHandle
	}
	a.slots[to-1].next = tail
	a.slots[to-1].prev = NullHandle
}

// grow doubles the arena capacity and prepends the new slots to the free list.
func (a *Arena[T]) grow() {
	oldCap := len(a.slots)
	newCap := oldCap * arenaGrowthFactor

	slots := make([]slot[T], newCap)
	copy(slots, a.slots)
	a.slots = slots

	a.linkFree(oldCap, newCap, a.freeHead)
	a.freeHead = Handle(oldCap)
}

// Alloc stores value in a free slot and returns its handle.
func (a *Arena[T]) Alloc(value T) Handle {
	if a.freeHead == NullHandle {
		a.grow()
	}

	h := a.freeHead
	s := &a.slots[h]
	a.freeHead = s.next

	s.value = value
	s.prev = NullHandle
	s.next = NullHandle
	s.used = true
	a.count++

	return h
}

// Free returns the slot to the free list. Freeing an invalid handle is a no-op.
func (a *Arena[T]) Free(h Handle) {
	if !a.Valid(h) {
		return
	}

	s := &a.slots[h]
	var zero T
	s.value = zero
	s.used = false
	s.prev = NullHandle
	s.next = a.freeHead
	a.freeHead = h
	a.count--
}

// Get returns a pointer to the value stored at h, or nil if h is not allocated.
func (a *Arena[T]) Get(h Handle) *T {
	if !a.Valid(h) {
		return nil
	}
	return &a.slots[h].value
}

// Valid reports whether h refers to an allocated slot.
func (a *Arena[T]) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(a.slots) && a.slots[h].used
}

// Len returns the number of allocated slots.
func (a *Arena[T]) Len() int {
	return a.count
}

// Capacity returns the number of slots, allocated or free.
func (a *Arena[T]) Capacity() int {
	return len(a.slots)
}

// List is an intrusive FIFO queue of arena slots. Links live in the arena,
// so every operation goes through the Arena that owns the slots. The zero
// value is not usable; create one with NewList.
type List struct {
	head Handle
	tail Handle
	len  int
}

func NewList() List {
	return List{head: NullHandle, tail: NullHandle}
}

// Front returns the oldest handle in l, or NullHandle.
func (l *List) Front() Handle {
	return l.head
}

// Back returns the newest handle in l, or NullHandle.
func (l *List) Back() Handle {
	return l.tail
}

func (l *List) Len() int {
	return l.len
}

func (l *List) Empty() bool {
	return l.len == 0
}

// PushBack appends h to the tail of l.
func (a *Arena[T]) PushBack(l *List, h Handle) {
	s := &a.slots[h]
	s.prev = l.tail
	s.next = NullHandle

	if l.tail != NullHandle {
		a.slots[l.tail].next = h
	} else {
		l.head = h
	}
	l.tail = h
	l.len++
}

// Unlink removes h from l. The slot stays allocated.
func (a *Arena[T]) Unlink(l *List, h Handle) {
	s := &a.slots[h]

	if s.prev != NullHandle {
		a.slots[s.prev].next = s.next
	} else {
		l.head = s.next
	}

	if s.next != NullHandle {
		a.slots[s.next].prev = s.prev
	} else {
		l.tail = s.prev
	}

	s.prev = NullHandle
	s.next = NullHandle
	l.len--
}

// Next returns the handle after h in its list, or NullHandle.
func (a *Arena[T]) Next(h Handle) Handle {
	return a.slots[h].next
}
