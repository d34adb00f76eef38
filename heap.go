package memheap

import "unsafe"

// Heap owns every bucket and large mapping created through it and
// dispatches each request to the bucket or large path based on size.
// The zero value is not usable; construct one with NewHeap.
type Heap struct {
	cfg       Config
	buckets   *bucketAllocator
	large     *largeAllocator
	threshold int
}

// NewHeap creates a heap using cfg, filling in any zero fields from
// DefaultConfig.
func NewHeap(cfg Config) *Heap {
	cfg.normalize()
	return &Heap{
		cfg:       cfg,
		buckets:   newBucketAllocator(cfg),
		large:     newLargeAllocator(cfg),
		threshold: cfg.largeThreshold(),
	}
}

// Close releases every OS mapping owned by h. Any pointer still held
// by the caller becomes dangling; that's the caller's leak, not a
// fault this call reports.
func (h *Heap) Close() error {
	h.buckets.Cleanup()
	h.large.Cleanup()
	return nil
}

// Alloc returns a 16-byte aligned pointer to size uninitialized
// bytes (a fresh mapping or a reused bucket slot), or nil for a zero
// or negative size, an oversize request, or an OS mapping failure.
func (h *Heap) Alloc(size int) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if size < 0 || size > maxAllocSize {
		return nil
	}

	var ptr unsafe.Pointer
	if size >= h.threshold {
		ptr = h.large.Alloc(size)
	} else {
		sc, ok := h.buckets.classify(size)
		if !ok {
			// Reachable when the large threshold is configured larger
			// than the medium ceiling: size is under the threshold but
			// past every bucket class, so it still routes to large.
			ptr = h.large.Alloc(size)
		} else {
			ptr = h.buckets.Alloc(sc)
		}
	}

	if ptr != nil && uintptr(ptr)%mallocAlignment != 0 {
		fault(FaultIntegrity, "returned pointer %p is not %d-byte aligned", ptr, mallocAlignment)
	}
	return ptr
}

// Free releases ptr. ptr == nil is a no-op. Any other pointer not
// recognized as owned by h is a fatal invalid-free fault.
func (h *Heap) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	if lh, ok := h.large.owns(ptr); ok {
		h.large.Free(lh)
		return
	}
	h.buckets.Free(ptr)
}

// Resize changes the usable size of the allocation at ptr, preserving
// bytes in [0, min(old, new)) and possibly moving the allocation.
// ptr == nil behaves like Alloc(newSize); newSize == 0 or oversize
// frees ptr and returns nil.
func (h *Heap) Resize(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	if ptr == nil {
		return h.Alloc(newSize)
	}
	if newSize == 0 || newSize < 0 || newSize > maxAllocSize {
		h.Free(ptr)
		return nil
	}

	if lh, ok := h.large.owns(ptr); ok {
		if newPtr, grew := h.large.Resize(lh, newSize); grew {
			return newPtr
		}
		oldSize := lh.size
		newPtr := h.Alloc(newSize)
		if newPtr == nil {
			return nil
		}
		copyBytes(newPtr, ptr, minInt(oldSize, newSize))
		h.large.Free(lh)
		return newPtr
	}

	bk, idx, ok := h.buckets.find(ptr)
	if !ok {
		fault(FaultUnownedResize, "pointer %p is not owned by this heap", ptr)
	}
	if sc, ok := h.buckets.classify(newSize); ok && sc.index == bk.classIndex {
		return ptr
	}

	oldSize := bk.slotSize
	newPtr := h.Alloc(newSize)
	if newPtr == nil {
		return nil
	}
	copyBytes(newPtr, ptr, minInt(oldSize, newSize))
	bk.freeSlot(idx, h.cfg.Poison)
	return newPtr
}

func copyBytes(dst, src unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
