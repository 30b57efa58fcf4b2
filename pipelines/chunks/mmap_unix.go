// Copyright (c) 2025 Michael D Henderson. All rights reserved.

//go:build unix

package chunks

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the whole file read-only into memory.
// Zero length files cannot be mapped and return ErrEmptyFile.
func Map(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	// advisory only
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &Mapping{
		data: data,
		unmap: func() error {
			return unix.Munmap(data)
		},
	}, nil
}
