// Copyright (c) 2025 Michael D Henderson. All rights reserved.

//go:build !unix

package chunks

import (
	"fmt"
	"os"
)

// Map reads the whole file into memory on platforms without mmap support.
func Map(path string) (*Mapping, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}
