package memheap

import (
	"testing"
	"unsafe"
)

func TestLargeAllocFreeRoundTrip(t *testing.T) {
	cfg := testConfig()
	la := newLargeAllocator(cfg)

	ptr := la.Alloc(20000)
	if ptr == nil {
		t.Fatal("Alloc returned nil")
	}
	if uintptr(ptr)%mallocAlignment != 0 {
		t.Fatalf("pointer %p is not %d-byte aligned", ptr, mallocAlignment)
	}

	h, ok := la.owns(ptr)
	if !ok {
		t.Fatal("owns() did not recognize a pointer it just returned")
	}
	if h.size != 20000 {
		t.Fatalf("recorded size = %d, want 20000", h.size)
	}

	la.Free(h)
	if _, ok := la.owns(ptr); ok {
		t.Fatal("owns() still recognizes a freed pointer")
	}
}

func TestLargeResizeSamePageCount(t *testing.T) {
	cfg := testConfig()
	la := newLargeAllocator(cfg)

	// Pick a size that maps to exactly 5 pages, then resize up to the
	// largest size that still fits in those same 5 pages.
	initialSize := 5*osPageSize - largeHeaderSize - 1
	ptr := la.Alloc(initialSize)
	h, _ := la.owns(ptr)

	fitSize := 5*osPageSize - largeHeaderSize
	newPtr, grew := la.Resize(h, fitSize)
	if !grew {
		t.Fatal("expected in-place resize within the same page count")
	}
	if newPtr != ptr {
		t.Fatalf("in-place resize returned a different pointer")
	}
	if h.size != fitSize {
		t.Fatalf("recorded size = %d, want %d", h.size, fitSize)
	}

	la.Free(h)
}

func TestLargeResizeGrowsMapping(t *testing.T) {
	cfg := testConfig()
	la := newLargeAllocator(cfg)

	initialSize := 5*osPageSize - largeHeaderSize - 1
	ptr := la.Alloc(initialSize)
	h, _ := la.owns(ptr)

	overflowSize := 5*osPageSize - largeHeaderSize + 1
	_, grew := la.Resize(h, overflowSize)
	if grew {
		t.Fatal("expected a page-count increase to require a fresh mapping")
	}

	la.Free(h)
}

func TestLargeHeaderPrecedesPayload(t *testing.T) {
	cfg := testConfig()
	la := newLargeAllocator(cfg)

	ptr := la.Alloc(1)
	h, _ := la.owns(ptr)
	if unsafe.Pointer(h) == ptr {
		t.Fatal("header and payload must not alias")
	}
	if unsafe.Add(unsafe.Pointer(h), largeHeaderSize) != ptr {
		t.Fatal("payload does not immediately follow the header")
	}
	la.Free(h)
}
