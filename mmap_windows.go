// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

package memheap

import (
	"errors"
	"os"
	"reflect"
	"syscall"
	"unsafe"
)

var osPageSize = os.Getpagesize()

// mmap on Windows is a two-step process: CreateFileMapping gets a
// handle backed by the system paging file, then MapViewOfFile maps a
// view of it into the process's address space.
var handleMap = map[uintptr]syscall.Handle{}

func mmapAnon(size int) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(int64(size) >> 32)
	maxSizeLow := uint32(int64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.InvalidHandle, nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, os.NewSyscallError("CreateFileMapping", errno)
	}

	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, uintptr(size))
	if addr == 0 {
		return nil, os.NewSyscallError("MapViewOfFile", errno)
	}

	handleMap[addr] = h
	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = size
	sh.Cap = size
	return b, nil
}

func munmapAnon(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return err
	}

	handle, ok := handleMap[addr]
	if !ok {
		return errors.New("memheap: unknown base address")
	}
	delete(handleMap, addr)

	return os.NewSyscallError("CloseHandle", syscall.CloseHandle(handle))
}
