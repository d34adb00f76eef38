package memheap

import (
	"testing"
	"unsafe"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.normalize()
	return cfg
}

func TestBucketAllocFreeRoundTrip(t *testing.T) {
	cfg := testConfig()
	bk, err := newBucket(cfg, 0, 48, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer cfg.pages.Unmap(bk.bytes())

	if bk.capacity < 100 {
		t.Fatalf("capacity = %d, want >= 100", bk.capacity)
	}
	if bk.totalBytes%osPageSize != 0 {
		t.Fatalf("totalBytes %d is not a multiple of the page size", bk.totalBytes)
	}

	var ptrs []unsafe.Pointer
	for bk.hasFreeSlot() {
		ptrs = append(ptrs, bk.allocSlot(false))
	}
	if len(ptrs) != bk.capacity {
		t.Fatalf("allocated %d slots, want %d", len(ptrs), bk.capacity)
	}
	if bk.occupied != bk.capacity {
		t.Fatalf("occupied = %d, want %d", bk.occupied, bk.capacity)
	}

	seen := map[uintptr]bool{}
	for _, p := range ptrs {
		addr := uintptr(p)
		if addr%mallocAlignment != 0 {
			t.Fatalf("slot address %#x is not %d-byte aligned", addr, mallocAlignment)
		}
		if seen[addr] {
			t.Fatalf("duplicate slot address %#x", addr)
		}
		seen[addr] = true
	}

	for i, p := range ptrs {
		idx, ok := bk.slotIndex(p)
		if !ok {
			t.Fatalf("slotIndex rejected live pointer %p", p)
		}
		bk.freeSlot(idx, false)
		if bk.occupied != bk.capacity-i-1 {
			t.Fatalf("occupied after free %d = %d, want %d", i, bk.occupied, bk.capacity-i-1)
		}
	}
}

func TestBucketDoubleFreePanics(t *testing.T) {
	cfg := testConfig()
	bk, err := newBucket(cfg, 0, 48, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer cfg.pages.Unmap(bk.bytes())

	p := bk.allocSlot(false)
	idx, _ := bk.slotIndex(p)
	bk.freeSlot(idx, false)

	defer func() {
		r := recover()
		af, ok := r.(*AllocatorFault)
		if !ok {
			t.Fatalf("expected *AllocatorFault panic, got %#v", r)
		}
		if af.Kind != FaultDoubleFree {
			t.Fatalf("Kind = %v, want FaultDoubleFree", af.Kind)
		}
	}()
	bk.freeSlot(idx, false)
}

func TestBucketRejectsPointerInBookkeeping(t *testing.T) {
	cfg := testConfig()
	bk, err := newBucket(cfg, 0, 48, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer cfg.pages.Unmap(bk.bytes())

	headerPtr := unsafe.Pointer(bk)
	if _, ok := bk.slotIndex(headerPtr); ok {
		t.Fatal("slotIndex accepted a pointer into the bucket header")
	}

	bookkeepingPtr := unsafe.Add(unsafe.Pointer(bk), bucketHeaderSize)
	if _, ok := bk.slotIndex(bookkeepingPtr); ok {
		t.Fatal("slotIndex accepted a pointer into the bookkeeping region")
	}
}

func TestBucketCapacityNeverExceedsMapping(t *testing.T) {
	cfg := testConfig()
	for _, slotSize := range []int{32, 48, 1744, 27216} {
		bk, err := newBucket(cfg, 0, slotSize, 5)
		if err != nil {
			t.Fatal(err)
		}
		if got := bucketRequiredSize(slotSize, bk.capacity); got > bk.totalBytes {
			t.Fatalf("slotSize=%d: required %d exceeds mapped %d", slotSize, got, bk.totalBytes)
		}
		cfg.pages.Unmap(bk.bytes())
	}
}
