// Package memheap implements a page-backed dynamic memory allocator.
//
// Small and medium requests are served out of fixed-slot buckets
// carved from anonymous OS page mappings; large requests get their
// own dedicated mapping. A Heap owns every bucket and large mapping
// it ever created and releases them on Close. The zero-handle
// entry points (Alloc, Free, Resize) operate on a lazily created
// process-global Heap.
//
// The package is not safe for concurrent use by multiple goroutines
// without external synchronization; a single Heap is meant to be
// owned by one goroutine or protected by a caller-supplied mutex.
package memheap
