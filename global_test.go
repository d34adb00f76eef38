package memheap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestGlobalHeapLazyInit(t *testing.T) {
	defer DestroyGlobalHeap()

	require.Nil(t, globalHeap)
	p := Alloc(64)
	require.NotNil(t, p)
	require.NotNil(t, globalHeap)

	Free(p)
}

func TestGlobalHeapResize(t *testing.T) {
	defer DestroyGlobalHeap()

	p := Alloc(32)
	require.NotNil(t, p)
	buf := unsafe.Slice((*byte)(p), 32)
	buf[0] = 7

	q := Resize(p, 2000)
	require.NotNil(t, q)
	qbuf := unsafe.Slice((*byte)(q), 32)
	require.Equal(t, byte(7), qbuf[0])
}

func TestDestroyGlobalHeapResetsState(t *testing.T) {
	p := Alloc(64)
	require.NotNil(t, p)

	DestroyGlobalHeap()
	require.Nil(t, globalHeap)

	// A second destroy on an already-nil heap must be a no-op.
	DestroyGlobalHeap()

	q := Alloc(64)
	require.NotNil(t, q)
	DestroyGlobalHeap()
}
