package memheap

import "unsafe"

// globalHeap is lazily created on first use by the no-handle entry
// points, so a program that never calls Alloc/Free/Resize never pays
// for a default heap it doesn't need.
var globalHeap *Heap

func ensureGlobalHeap() *Heap {
	if globalHeap == nil {
		globalHeap = NewHeap(DefaultConfig())
	}
	return globalHeap
}

// Alloc allocates from the process-global heap, creating it on first
// use.
func Alloc(size int) unsafe.Pointer {
	return ensureGlobalHeap().Alloc(size)
}

// Free releases ptr back to the process-global heap.
func Free(ptr unsafe.Pointer) {
	ensureGlobalHeap().Free(ptr)
}

// Resize resizes ptr against the process-global heap.
func Resize(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	return ensureGlobalHeap().Resize(ptr, newSize)
}

// DestroyGlobalHeap releases every mapping owned by the process-global
// heap and clears it, so the next Alloc/Free/Resize call lazily
// creates a fresh one.
func DestroyGlobalHeap() {
	if globalHeap == nil {
		return
	}
	globalHeap.Close()
	globalHeap = nil
}
