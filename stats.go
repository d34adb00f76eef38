package memheap

// Stats aggregates a heap's current allocation accounting. It is a
// reporting surface, not a correctness surface: nothing in the
// allocator consults Stats to make decisions.
type Stats struct {
	Buckets           int
	BucketAllocations int
	BucketBytes       int
	LargeAllocations  int
	LargeBytes        int
	TotalAllocations  int
	TotalBytes        int
}

// Stats computes a fresh snapshot by walking every bucket and large
// allocation currently owned by h.
func (h *Heap) Stats() Stats {
	var s Stats
	h.buckets.forEach(func(bk *bucket) {
		s.Buckets++
		s.BucketAllocations += bk.occupied
		s.BucketBytes += bk.occupied * bk.slotSize
	})
	h.large.forEach(func(lh *largeHeader) {
		s.LargeAllocations++
		s.LargeBytes += lh.size
	})
	s.TotalAllocations = s.BucketAllocations + s.LargeAllocations
	s.TotalBytes = s.BucketBytes + s.LargeBytes
	return s
}
