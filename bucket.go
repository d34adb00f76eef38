package memheap

import (
	"math/bits"
	"unsafe"
)

// bucket lives at the start of an OS-mapped region and partitions
// its payload into capacity equally-sized slots.
// Immediately after this header sits the bitmap bookkeeping region
// (one bit per slot, 1 = free), and after that, 16-byte aligned, the
// slot payload. Both regions are reached via unsafe pointer
// arithmetic from this struct's own address — the struct is never
// copied, only addressed through *bucket.
type bucket struct {
	link       listNode
	totalBytes int
	slotSize   int
	capacity   int
	occupied   int
	classIndex int
}

var bucketHeaderSize = roundup(int(unsafe.Sizeof(bucket{})), mallocAlignment)

func bookkeepingWords(capacity int) int {
	return (capacity + 31) / 32
}

func bucketRequiredSize(slotSize, capacity int) int {
	payloadOffset := roundup(bucketHeaderSize+bookkeepingWords(capacity)*4, mallocAlignment)
	return payloadOffset + slotSize*capacity
}

// bucketCapacityFor computes the largest slot capacity that fits in
// totalBytes once the header, bitmap and alignment padding are
// accounted for. totalBytes is a page-rounded mapping size, so the
// achieved capacity may exceed the capacity originally requested;
// callers always get to keep the extra slots rather than leave them
// unused.
func bucketCapacityFor(totalBytes, slotSize int) int {
	avail := totalBytes - bucketHeaderSize
	if avail <= 0 {
		return 0
	}
	cap := avail / slotSize
	for cap > 0 && bucketRequiredSize(slotSize, cap) > totalBytes {
		cap--
	}
	for bucketRequiredSize(slotSize, cap+1) <= totalBytes {
		cap++
	}
	return cap
}

func newBucket(cfg Config, classIndex, slotSize, targetCapacity int) (*bucket, error) {
	mem, err := cfg.pages.Map(bucketRequiredSize(slotSize, targetCapacity))
	if err != nil {
		return nil, err
	}

	bk := (*bucket)(unsafe.Pointer(&mem[0]))
	*bk = bucket{
		totalBytes: len(mem),
		slotSize:   slotSize,
		classIndex: classIndex,
	}
	bk.capacity = bucketCapacityFor(bk.totalBytes, slotSize)

	words := bk.bookkeeping()
	for i := range words {
		words[i] = 0xffffffff
	}
	// Clear any bits past capacity in the final word so the free-slot
	// scan can never report an out-of-range slot index.
	if extra := len(words)*32 - bk.capacity; extra > 0 {
		words[len(words)-1] &^= 0xffffffff << uint(32-extra)
	}

	if cfg.Poison {
		poisonFill(bk.payloadStart(), bk.capacity*bk.slotSize, patternNeverAllocated)
	}

	return bk, nil
}

func (bk *bucket) bookkeeping() []uint32 {
	ptr := unsafe.Add(unsafe.Pointer(bk), bucketHeaderSize)
	return unsafe.Slice((*uint32)(ptr), bookkeepingWords(bk.capacity))
}

func (bk *bucket) payloadStart() unsafe.Pointer {
	offset := roundup(bucketHeaderSize+bookkeepingWords(bk.capacity)*4, mallocAlignment)
	return unsafe.Add(unsafe.Pointer(bk), offset)
}

func (bk *bucket) slotAddr(index int) unsafe.Pointer {
	return unsafe.Add(bk.payloadStart(), index*bk.slotSize)
}

func (bk *bucket) hasFreeSlot() bool {
	return bk.occupied < bk.capacity
}

// allocSlot finds the first free slot (ascending word order, lowest
// bit wins within a word), marks it occupied and returns its
// address. The caller must have already verified hasFreeSlot.
func (bk *bucket) allocSlot(poison bool) unsafe.Pointer {
	words := bk.bookkeeping()
	for i, w := range words {
		if w == 0 {
			continue
		}
		bit := bits.TrailingZeros32(w)
		words[i] &^= 1 << uint(bit)
		index := i*32 + bit
		bk.occupied++
		ptr := bk.slotAddr(index)
		if poison {
			poisonFill(ptr, bk.slotSize, patternAllocatedUntouched)
		}
		return ptr
	}
	fault(FaultIntegrity, "bucket: allocSlot called with no free slot")
	return nil
}

// slotIndex reports the slot index ptr refers to, rejecting pointers
// outside the payload range or not aligned to a slot boundary — in
// particular it correctly rejects pointers that fall inside the
// bookkeeping region, since those addresses are always below
// payloadStart.
func (bk *bucket) slotIndex(ptr unsafe.Pointer) (int, bool) {
	start := uintptr(bk.payloadStart())
	p := uintptr(ptr)
	if p < start {
		return 0, false
	}
	end := start + uintptr(bk.capacity*bk.slotSize)
	if p >= end {
		return 0, false
	}
	off := p - start
	if int(off)%bk.slotSize != 0 {
		return 0, false
	}
	return int(off) / bk.slotSize, true
}

func (bk *bucket) isSlotFree(index int) bool {
	words := bk.bookkeeping()
	return (words[index/32]>>uint(index%32))&1 != 0
}

// freeSlot marks the slot at index free. Freeing an already-free
// slot is a double-free fault.
func (bk *bucket) freeSlot(index int, poison bool) {
	words := bk.bookkeeping()
	w, bit := index/32, uint(index%32)
	if (words[w]>>bit)&1 != 0 {
		fault(FaultDoubleFree, "slot %d in bucket already free", index)
	}
	words[w] |= 1 << bit
	bk.occupied--
	if poison {
		poisonFill(bk.slotAddr(index), bk.slotSize, patternFreed)
	}
}

// bytes reconstructs the byte slice originally returned by the page
// provider's Map call, for handing back to Unmap.
func (bk *bucket) bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(bk)), bk.totalBytes)
}
