package memheap

import (
	"fmt"
	"io"
	"sort"
	"unsafe"
)

// PrintState writes a human-readable summary of every bucket and
// large allocation owned by h to w. This is a reporting surface;
// formatting is not part of the allocator's contract.
func (h *Heap) PrintState(w io.Writer) {
	var numBuckets, numBucketAllocs int
	var bucketBytes int
	fmt.Fprintln(w, "=== Small and medium allocations (bucket allocator) ===")
	h.buckets.forEach(func(bk *bucket) {
		numBuckets++
		numBucketAllocs += bk.occupied
		bucketBytes += bk.occupied * bk.slotSize
	})
	fmt.Fprintf(w, "Total number of buckets: %d\n", numBuckets)
	fmt.Fprintf(w, "Total number of allocations: %d, %d bytes\n", numBucketAllocs, bucketBytes)
	h.buckets.forEach(func(bk *bucket) {
		fmt.Fprintf(w, "Bucket(%p): slot_size=%d, total_bytes=%d, occupied=%d, capacity=%d\n",
			bk, bk.slotSize, bk.totalBytes, bk.occupied, bk.capacity)
	})

	var numLarge, largeBytes int
	fmt.Fprintln(w, "\n=== Large allocations ===")
	h.large.forEach(func(lh *largeHeader) {
		numLarge++
		largeBytes += lh.size
	})
	fmt.Fprintf(w, "Total number of allocations: %d, %d bytes\n", numLarge, largeBytes)
	h.large.forEach(func(lh *largeHeader) {
		pageSize := h.cfg.pages.PageSize()
		pages := roundup(largeHeaderSize+lh.size, pageSize) / pageSize
		ptr := unsafe.Add(unsafe.Pointer(lh), largeHeaderSize)
		fmt.Fprintf(w, "Allocation(%p): %d bytes, using %d pages\n", ptr, lh.size, pages)
	})
}

// liveRegion describes one live allocation for ShowAllocMem.
type liveRegion struct {
	addr     uintptr
	size     int
	category string
}

// ShowAllocMem lists every live allocation owned by h grouped by
// category (small, then medium, then large), in ascending address
// order within each group.
func (h *Heap) ShowAllocMem(w io.Writer) {
	smallMax := h.buckets.cls.granularSmallMax()

	var regions []liveRegion
	h.buckets.forEach(func(bk *bucket) {
		words := bk.bookkeeping()
		category := "medium"
		if bk.slotSize <= smallMax {
			category = "small"
		}
		for i := 0; i < bk.capacity; i++ {
			free := (words[i/32]>>uint(i%32))&1 != 0
			if free {
				continue
			}
			regions = append(regions, liveRegion{
				addr:     uintptr(bk.slotAddr(i)),
				size:     bk.slotSize,
				category: category,
			})
		}
	})
	h.large.forEach(func(lh *largeHeader) {
		regions = append(regions, liveRegion{
			addr:     uintptr(unsafe.Add(unsafe.Pointer(lh), largeHeaderSize)),
			size:     lh.size,
			category: "large",
		})
	})

	rank := map[string]int{"small": 0, "medium": 1, "large": 2}
	sort.Slice(regions, func(i, j int) bool {
		if ri, rj := rank[regions[i].category], rank[regions[j].category]; ri != rj {
			return ri < rj
		}
		return regions[i].addr < regions[j].addr
	})

	for _, r := range regions {
		fmt.Fprintf(w, "[%s] 0x%x .. 0x%x (%d bytes)\n", r.category, r.addr, r.addr+uintptr(r.size), r.size)
	}
}
