package automaton

import "fmt"

const (
	rootState uint32 = 0

	freeSlot = ^uint32(0)   // check value of an unused slot
	noParent = freeSlot - 1 // check value of the root slot
	blockLen = 256          // arrays grow in whole blocks

	// Only the newest blocks keep their free slots on the free list. Older
	// blocks are closed wholesale when the array grows past the window, so
	// the first-fit search always covers the sparse tail.
	minOpenBlocks = 16
)

// doubleArray is the compacted transition function. For a state s and an
// alphabet code c, t = base[s]+c is the child iff check[t] == s. The other
// arrays are indexed by state and carry what the scan needs at each state.
type doubleArray struct {
	base        []uint32
	check       []uint32
	fail        []uint32
	output      []uint32 // 1-based head of the output chain, 0 = none
	depth       []uint32
	minPriority []uint32 // LeftmostFirst only
}

// slotAllocator hands out double-array slots during compaction. Free slots
// of the open blocks form an ascending doubly linked list threaded through
// prev/next.
type slotAllocator struct {
	base       []uint32
	check      []uint32
	prev, next []int32
	listed     []bool
	head, tail int32
	openBlocks int
	closed     int // slots below this index belong to closed blocks
}

// newSlotAllocator returns an allocator holding one block with slot 0 taken
// by the root. capHint preallocates capacity only; openBlocks is the width of
// the search window in blocks.
func newSlotAllocator(capHint, openBlocks int) *slotAllocator {
	capHint = max(capHint, blockLen)
	a := &slotAllocator{
		base:       make([]uint32, 0, capHint),
		check:      make([]uint32, 0, capHint),
		prev:       make([]int32, 0, capHint),
		next:       make([]int32, 0, capHint),
		listed:     make([]bool, 0, capHint),
		head:       -1,
		tail:       -1,
		openBlocks: max(openBlocks, 1),
	}
	a.grow(1)
	a.unlink(0)
	a.check[0] = noParent
	return a
}

// openBlocksFor sizes the window so one node's children, spread over the
// whole alphabet, can still be placed inside it.
func openBlocksFor(alphabet uint32) int {
	return max(minOpenBlocks, 2*(int(alphabet)/blockLen+1))
}

func (a *slotAllocator) grow(minLen int) {
	old := len(a.check)
	if minLen <= old {
		return
	}
	newLen := (minLen + blockLen - 1) / blockLen * blockLen
	for i := old; i < newLen; i++ {
		a.base = append(a.base, 0)
		a.check = append(a.check, freeSlot)
		a.prev = append(a.prev, a.tail)
		a.next = append(a.next, -1)
		a.listed = append(a.listed, true)
		if a.tail >= 0 {
			a.next[a.tail] = int32(i)
		} else {
			a.head = int32(i)
		}
		a.tail = int32(i)
	}
	for newLen-a.closed > a.openBlocks*blockLen {
		a.closeBlock()
	}
}

// closeBlock drops the oldest open block's free slots from the list. They
// stay free, and a placement may still land on one, but none is searched.
func (a *slotAllocator) closeBlock() {
	for i := a.closed; i < a.closed+blockLen; i++ {
		a.unlink(int32(i))
	}
	a.closed += blockLen
}

func (a *slotAllocator) unlink(i int32) {
	if !a.listed[i] {
		return
	}
	p, n := a.prev[i], a.next[i]
	if p >= 0 {
		a.next[p] = n
	} else {
		a.head = n
	}
	if n >= 0 {
		a.prev[n] = p
	} else {
		a.tail = p
	}
	a.prev[i], a.next[i] = -1, -1
	a.listed[i] = false
}

// findBase returns a base such that base+c is free for every code in codes.
// codes must be sorted ascending. Every listed slot is tried as the home of
// the lowest code; if none fits, the children go past the end of the array.
func (a *slotAllocator) findBase(codes []uint32) uint32 {
	for f := a.head; f >= 0; f = a.next[f] {
		if uint32(f) < codes[0] {
			continue
		}
		if b := uint32(f) - codes[0]; a.fits(b, codes) {
			return b
		}
	}
	end := uint32(len(a.check))
	if end >= codes[0] {
		return end - codes[0]
	}
	return 0
}

func (a *slotAllocator) fits(b uint32, codes []uint32) bool {
	for _, c := range codes {
		i := b + c
		if int(i) < len(a.check) && a.check[i] != freeSlot {
			return false
		}
	}
	return true
}

func (a *slotAllocator) claim(slot, parent uint32) error {
	a.grow(int(slot) + 1)
	if a.check[slot] != freeSlot {
		return fmt.Errorf("%w: slot %d already owned by state %d", ErrCorruptAutomaton, slot, a.check[slot])
	}
	a.unlink(int32(slot))
	a.check[slot] = parent
	return nil
}

// compact places every trie node into the double array, breadth-first, and
// copies the per-node scan data across. The result is verified before it is
// returned; a failed verification never yields a usable array.
func compact(t *trie) (*doubleArray, error) {
	alphabet := uint32(0)
	for n := range t.nodes {
		if edges := t.nodes[n].edges; len(edges) > 0 {
			alphabet = max(alphabet, edges[len(edges)-1].code)
		}
	}
	alloc := newSlotAllocator(len(t.nodes)+blockLen, openBlocksFor(alphabet))
	slots := make([]uint32, len(t.nodes))

	codes := make([]uint32, 0, 16)
	used := uint32(0)
	for _, n := range t.order {
		edges := t.nodes[n].edges
		if len(edges) == 0 {
			continue
		}
		codes = codes[:0]
		for _, e := range edges {
			codes = append(codes, e.code)
		}

		s := slots[n]
		b := alloc.findBase(codes)
		for _, e := range edges {
			child := b + e.code
			if err := alloc.claim(child, s); err != nil {
				return nil, err
			}
			slots[e.node] = child
			if child > used {
				used = child
			}
		}
		alloc.base[s] = b
	}

	size := int(used) + 1
	da := &doubleArray{
		base:   make([]uint32, size),
		check:  make([]uint32, size),
		fail:   make([]uint32, size),
		output: make([]uint32, size),
		depth:  make([]uint32, size),
	}
	copy(da.base, alloc.base[:size])
	copy(da.check, alloc.check[:size])
	if t.minPriority != nil {
		da.minPriority = make([]uint32, size)
	}

	for n := range t.nodes {
		s := slots[n]
		da.fail[s] = slots[t.nodes[n].fail]
		da.output[s] = t.heads[n]
		da.depth[s] = t.nodes[n].depth
		if da.minPriority != nil {
			da.minPriority[s] = t.minPriority[n]
		}
	}

	if err := da.verify(t, slots); err != nil {
		return nil, err
	}
	return da, nil
}

// verify checks that every trie edge is reachable through base/check.
func (da *doubleArray) verify(t *trie, slots []uint32) error {
	for n := range t.nodes {
		s := slots[n]
		for _, e := range t.nodes[n].edges {
			idx := da.base[s] + e.code
			if int(idx) >= len(da.check) || da.check[idx] != s || idx != slots[e.node] {
				return fmt.Errorf("%w: state %d on code %d", ErrCorruptAutomaton, s, e.code)
			}
		}
	}
	return nil
}

func (da *doubleArray) heapBytes() int {
	return 4 * (cap(da.base) + cap(da.check) + cap(da.fail) +
		cap(da.output) + cap(da.depth) + cap(da.minPriority))
}
