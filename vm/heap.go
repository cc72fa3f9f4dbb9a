// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "sort"

// Allocation records one live heap allocation. Ptr is the address returned
// to the caller by Heap.Allocate: the block's LAST address, not its base
// (base = Ptr - Size + 1). This mirrors the reference implementation's
// malloc, which computes new allocations as "gap start + size" rather than
// "gap start + 1" — see DESIGN.md's open-question note.
type Allocation struct {
	Ptr  Word
	Size Word
}

func (a Allocation) base() Word { return a.Ptr - a.Size + 1 }

// Heap is a best-fit allocator over the address range (codeEnd, cutoff],
// backed by a Memory instance for zeroing newly-allocated words.
type Heap struct {
	mem     *Memory
	allocs  []Allocation // sorted ascending by Ptr; non-overlapping
	cutoff  Word         // highest usable address, refreshed at each syscall entry
}

// NewHeap returns a heap allocator operating on mem.
func NewHeap(mem *Memory) *Heap {
	return &Heap{mem: mem}
}

// SetCutoff updates the highest address the allocator may use. The executor
// calls this at every syscall entry with tos-1, per spec §4.8.
func (h *Heap) SetCutoff(cutoff Word) { h.cutoff = cutoff }

// Allocations returns the live allocation table, sorted by Ptr ascending.
// The returned slice must not be mutated.
func (h *Heap) Allocations() []Allocation { return h.allocs }

// Allocate reserves size words using best fit (the smallest free run that
// still fits, ties broken by lowest address) and zeroes them. It returns
// false if size is 0 or no run is large enough.
func (h *Heap) Allocate(size Word) (Word, bool) {
	if size == 0 {
		return 0, false
	}
	codeEnd := h.mem.CodeEnd()

	if len(h.allocs) == 0 {
		if h.cutoff <= codeEnd || h.cutoff-codeEnd < size {
			return 0, false
		}
		return h.place(codeEnd, size), true
	}

	type candidate struct {
		gapStart Word
		gapSize  Word
		index    int // insertion index in h.allocs
	}
	var best *candidate

	consider := func(gapStart, gapSize Word, index int) {
		if gapSize < size {
			return
		}
		if best == nil || gapSize < best.gapSize ||
			(gapSize == best.gapSize && gapStart < best.gapStart) {
			best = &candidate{gapStart, gapSize, index}
		}
	}

	first := h.allocs[0]
	if first.base() > codeEnd {
		consider(codeEnd, first.base()-1-codeEnd, 0)
	}
	for i := 1; i < len(h.allocs); i++ {
		prev, cur := h.allocs[i-1], h.allocs[i]
		if cur.base() > prev.Ptr {
			consider(prev.Ptr, cur.base()-1-prev.Ptr, i)
		}
	}
	last := h.allocs[len(h.allocs)-1]
	if h.cutoff > last.Ptr {
		consider(last.Ptr, h.cutoff-last.Ptr, len(h.allocs))
	}

	if best == nil {
		return 0, false
	}
	return h.place(best.gapStart, size), true
}

// place records and zeroes a new allocation occupying
// [gapStart+1, gapStart+size], returning its Ptr (gapStart+size).
func (h *Heap) place(gapStart, size Word) Word {
	ptr := gapStart + size
	for a := gapStart + 1; a <= ptr; a++ {
		h.mem.Write(a, 0)
	}
	idx := sort.Search(len(h.allocs), func(i int) bool { return h.allocs[i].Ptr >= ptr })
	h.allocs = append(h.allocs, Allocation{})
	copy(h.allocs[idx+1:], h.allocs[idx:])
	h.allocs[idx] = Allocation{Ptr: ptr, Size: size}
	return ptr
}

// Free releases the allocation identified by ptr. An unknown ptr is
// silently ignored, matching the reference implementation.
func (h *Heap) Free(ptr Word) {
	for i, a := range h.allocs {
		if a.Ptr == ptr {
			h.allocs = append(h.allocs[:i], h.allocs[i+1:]...)
			return
		}
	}
}
