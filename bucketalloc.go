package memheap

import "unsafe"

// bucketFromNode recovers the owning *bucket from a pointer to its
// embedded link field. Safe because link is bucket's first field, so
// its address equals the bucket's address.
func bucketFromNode(n *listNode) *bucket {
	return (*bucket)(unsafe.Pointer(n))
}

// bucketAllocator services allocate/free/resize for every small and
// medium size class, one bucket list per class.
type bucketAllocator struct {
	cfg   Config
	cls   classifier
	heads []*listNode
}

func newBucketAllocator(cfg Config) *bucketAllocator {
	cls := classifier{cfg: cfg}
	return &bucketAllocator{
		cfg:   cfg,
		cls:   cls,
		heads: make([]*listNode, cls.numClasses()),
	}
}

func (ba *bucketAllocator) classify(size int) (sizeClass, bool) {
	return ba.cls.Classify(size)
}

func (ba *bucketAllocator) targetCapacity(sc sizeClass) int {
	if ba.cls.isSmallSlot(sc.slotSize) {
		return ba.cfg.MinBucketCapacitySmall
	}
	return ba.cfg.MinBucketCapacityMedium
}

// Alloc services a request already known to classify within the
// small/medium regime; it is a programmer error to call it otherwise.
func (ba *bucketAllocator) Alloc(sc sizeClass) unsafe.Pointer {
	for n := ba.heads[sc.index]; n != nil; n = n.next {
		bk := bucketFromNode(n)
		if bk.hasFreeSlot() {
			return bk.allocSlot(ba.cfg.Poison)
		}
	}

	bk, err := newBucket(ba.cfg, sc.index, sc.slotSize, ba.targetCapacity(sc))
	if err != nil {
		return nil
	}
	listPushFront(&ba.heads[sc.index], &bk.link)

	ptr := bk.allocSlot(ba.cfg.Poison)
	if ba.cfg.Verify {
		listVerify(ba.heads[sc.index])
	}
	return ptr
}

// find walks every class's bucket list looking for the bucket whose
// payload range and slot alignment accept ptr. O(number of buckets
// in the heap).
func (ba *bucketAllocator) find(ptr unsafe.Pointer) (bk *bucket, index int, ok bool) {
	for _, head := range ba.heads {
		for n := head; n != nil; n = n.next {
			cand := bucketFromNode(n)
			if idx, owns := cand.slotIndex(ptr); owns {
				return cand, idx, true
			}
		}
	}
	return nil, 0, false
}

// slotSizeOf returns the slot size of bk. Heap.Resize reads
// bk.slotSize directly to bound its copy length.
func (ba *bucketAllocator) slotSizeOf(bk *bucket) int {
	return bk.slotSize
}

func (ba *bucketAllocator) Free(ptr unsafe.Pointer) {
	bk, idx, ok := ba.find(ptr)
	if !ok {
		fault(FaultInvalidFree, "pointer %p is not owned by any bucket", ptr)
	}
	bk.freeSlot(idx, ba.cfg.Poison)
	if ba.cfg.Verify {
		listVerify(ba.heads[bk.classIndex])
	}
}

// forEach visits every live bucket across every class, for stats and
// dump reporting.
func (ba *bucketAllocator) forEach(fn func(bk *bucket)) {
	for _, head := range ba.heads {
		for n := head; n != nil; n = n.next {
			fn(bucketFromNode(n))
		}
	}
}

// Cleanup unmaps every bucket regardless of occupied count. Residual
// live allocations at heap destruction become the caller's problem,
// not a condition that blocks teardown.
func (ba *bucketAllocator) Cleanup() {
	for i, head := range ba.heads {
		for n := head; n != nil; {
			bk := bucketFromNode(n)
			next := n.next
			ba.cfg.pages.Unmap(bk.bytes())
			n = next
		}
		ba.heads[i] = nil
	}
}
