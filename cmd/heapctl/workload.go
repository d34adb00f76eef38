package main

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/cznic/mathutil"

	"github.com/kveeren/memheap"
)

// runWorkload drives h through one of the named synthetic allocation
// patterns below and returns a final stats snapshot. The RNG is a
// seeded mathutil.FC32, so a run is reproducible across invocations.
func runWorkload(h *memheap.Heap, name string, seed uint32) (memheap.Stats, error) {
	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	if err != nil {
		return memheap.Stats{}, fmt.Errorf("seeding workload rng: %w", err)
	}
	rng.Seed(int32(seed))

	switch name {
	case "alloc-free":
		allocFreeWorkload(h, rng)
	case "churn":
		churnWorkload(h, rng)
	case "large":
		largeWorkload(h, rng)
	default:
		return memheap.Stats{}, fmt.Errorf("unknown workload %q", name)
	}

	return h.Stats(), nil
}

// allocFreeWorkload allocates a batch of small/medium sizes, touches
// every byte, then frees the whole batch in reverse order.
func allocFreeWorkload(h *memheap.Heap, rng *mathutil.FC32) {
	const count = 2000

	ptrs := make([]unsafe.Pointer, 0, count)
	sizes := make([]int, 0, count)

	for i := 0; i < count; i++ {
		size := rng.Next()%4096 + 1
		p := h.Alloc(size)
		if p == nil {
			continue
		}

		buf := unsafe.Slice((*byte)(p), size)
		for j := range buf {
			buf[j] = byte(rng.Next())
		}

		ptrs = append(ptrs, p)
		sizes = append(sizes, size)
	}

	for i := len(ptrs) - 1; i >= 0; i-- {
		h.Free(ptrs[i])
	}
}

// churnWorkload keeps a working set of live allocations and
// repeatedly frees one at random and replaces it, exercising the
// bucket allocator's slot reuse path.
func churnWorkload(h *memheap.Heap, rng *mathutil.FC32) {
	const workingSet = 500
	const iterations = 20000

	live := make([]unsafe.Pointer, 0, workingSet)
	for i := 0; i < workingSet; i++ {
		size := rng.Next()%1024 + 1
		if p := h.Alloc(size); p != nil {
			live = append(live, p)
		}
	}

	for i := 0; i < iterations; i++ {
		idx := int(rng.Next()) % len(live)
		h.Free(live[idx])

		size := rng.Next()%1024 + 1
		live[idx] = h.Alloc(size)
	}

	for _, p := range live {
		h.Free(p)
	}
}

// largeWorkload exercises the dedicated-mapping path: allocate a
// handful of multi-page regions, grow and shrink them, then release
// everything.
func largeWorkload(h *memheap.Heap, rng *mathutil.FC32) {
	const count = 20

	ptrs := make([]unsafe.Pointer, 0, count)
	for i := 0; i < count; i++ {
		size := rng.Next()%500000 + 20000
		if p := h.Alloc(size); p != nil {
			ptrs = append(ptrs, p)
		}
	}

	for i, p := range ptrs {
		newSize := rng.Next()%500000 + 20000
		ptrs[i] = h.Resize(p, newSize)
	}

	for _, p := range ptrs {
		h.Free(p)
	}
}
