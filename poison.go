package memheap

import "unsafe"

// poisonFill writes pattern into the n bytes starting at ptr. Used
// only when Config.Poison is set, to make use-after-free and reads
// of never-touched memory visible in a debugger or core dump
// (original_source/malloc.h's FT_MALLOC_MEMORY_PATTERN_* constants).
func poisonFill(ptr unsafe.Pointer, n int, pattern byte) {
	if n <= 0 {
		return
	}
	b := unsafe.Slice((*byte)(ptr), n)
	for i := range b {
		b[i] = pattern
	}
}
