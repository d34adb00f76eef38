// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

// Modifications (c) 2017 The Memory Authors.

package memheap

import (
	"os"

	"golang.org/x/sys/unix"
)

var osPageSize = os.Getpagesize()

func mmapAnon(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func munmapAnon(b []byte) error {
	return unix.Munmap(b)
}
