package memheap

import "unsafe"

// largeHeader sits at the start of a dedicated OS mapping, sized to
// page-align(headerSize + recorded size). The returned user pointer
// is header+1, which is 16-byte aligned because headerSize itself is
// rounded up to the alignment.
type largeHeader struct {
	link        listNode
	size        int // recorded request size
	mappedBytes int // total mapping length, for Unmap
}

var largeHeaderSize = roundup(int(unsafe.Sizeof(largeHeader{})), mallocAlignment)

// largeAllocator services requests at or above the configured large
// threshold, one dedicated mapping per request.
type largeAllocator struct {
	cfg  Config
	head *listNode
}

func newLargeAllocator(cfg Config) *largeAllocator {
	return &largeAllocator{cfg: cfg}
}

func headerFromNode(n *listNode) *largeHeader {
	return (*largeHeader)(unsafe.Pointer(n))
}

func (la *largeAllocator) Alloc(size int) unsafe.Pointer {
	mem, err := la.cfg.pages.Map(largeHeaderSize + size)
	if err != nil {
		return nil
	}

	h := (*largeHeader)(unsafe.Pointer(&mem[0]))
	*h = largeHeader{size: size, mappedBytes: len(mem)}
	listPushFront(&la.head, &h.link)

	ptr := unsafe.Add(unsafe.Pointer(h), largeHeaderSize)
	if la.cfg.Poison {
		poisonFill(ptr, size, patternAllocatedUntouched)
	}
	return ptr
}

func (la *largeAllocator) headerOf(ptr unsafe.Pointer) *largeHeader {
	return (*largeHeader)(unsafe.Add(ptr, -largeHeaderSize))
}

func (la *largeAllocator) bytesOf(h *largeHeader) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(h)), h.mappedBytes)
}

// owns reports whether ptr was returned by this allocator, by walking
// the large list. O(number of live large allocations); there's no
// address-range shortcut here since each mapping is its own range.
func (la *largeAllocator) owns(ptr unsafe.Pointer) (*largeHeader, bool) {
	for n := la.head; n != nil; n = n.next {
		h := headerFromNode(n)
		if unsafe.Add(unsafe.Pointer(h), largeHeaderSize) == ptr {
			return h, true
		}
	}
	return nil, false
}

func (la *largeAllocator) Free(h *largeHeader) {
	listRemove(&la.head, &h.link)
	la.cfg.pages.Unmap(la.bytesOf(h))
}

// Resize grows or shrinks in place when the page count does not
// increase, otherwise returns false so the caller (Heap.Resize)
// performs an alloc/copy/free through the dispatcher, which may
// route the new allocation to either path.
func (la *largeAllocator) Resize(h *largeHeader, newSize int) (ptr unsafe.Pointer, grew bool) {
	pageSize := la.cfg.pages.PageSize()
	oldPages := roundup(largeHeaderSize+h.size, pageSize) / pageSize
	newPages := roundup(largeHeaderSize+newSize, pageSize) / pageSize

	if newPages <= oldPages {
		h.size = newSize
		return unsafe.Add(unsafe.Pointer(h), largeHeaderSize), true
	}
	return nil, false
}

// forEach visits every live large allocation, for stats and dump
// reporting.
func (la *largeAllocator) forEach(fn func(h *largeHeader)) {
	for n := la.head; n != nil; n = n.next {
		fn(headerFromNode(n))
	}
}

func (la *largeAllocator) Cleanup() {
	for n := la.head; n != nil; {
		h := headerFromNode(n)
		next := n.next
		la.cfg.pages.Unmap(la.bytesOf(h))
		n = next
	}
	la.head = nil
}
