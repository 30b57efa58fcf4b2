// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package chunks splits a memory mapped report into line aligned byte ranges
// and runs a parser over the ranges concurrently.
//
// Invariants:
//
//	0 <= LineStart <= LineEnd <= len(data)
//	LineStart == 0 or data[LineStart-1] == '\n'
//	LineEnd == len(data) or data[LineEnd-1] == '\n'
//	chunk[i].LineEnd == chunk[i+1].LineStart
//
// so every line of the input belongs to exactly one chunk.
package chunks

import (
	"errors"
)

// MinParallelSize is the smallest input that is split into more than one chunk.
const MinParallelSize = 1024 * 1024

var (
	ErrEmptyFile  = errors.New("empty file")
	ErrNotRegular = errors.New("not a regular file")
	ErrTooLarge   = errors.New("file too large to map")
)

// Mapping is a read-only view of a file.
type Mapping struct {
	data  []byte
	unmap func() error
}

// Bytes returns the mapped contents. The slice must not be modified
// and must not be used after Close.
func (m *Mapping) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Len returns the size of the mapping in bytes.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.data)
}

// Close releases the mapping.
func (m *Mapping) Close() error {
	if m == nil || m.data == nil {
		return nil
	}
	var err error
	if m.unmap != nil {
		err = m.unmap()
	}
	m.data, m.unmap = nil, nil
	return err
}

// Chunk is a candidate byte range [Start, End) and the same range snapped
// to line boundaries, [LineStart, LineEnd).
type Chunk struct {
	Start     int
	End       int
	LineStart int
	LineEnd   int
}

// Len returns the number of bytes in the snapped range.
func (c Chunk) Len() int {
	return c.LineEnd - c.LineStart
}

// Split divides data into at most n line aligned chunks.
// Inputs smaller than MinParallelSize, or n < 2, produce a single chunk.
// Empty chunks (a single line longer than the chunk size) are dropped.
func Split(data []byte, n int) []Chunk {
	size := len(data)
	if size == 0 {
		return nil
	}
	if n < 2 || size < MinParallelSize {
		return []Chunk{{Start: 0, End: size, LineStart: 0, LineEnd: size}}
	}

	step := size / n
	var result []Chunk
	lineStart := 0
	for i := 0; i < n; i++ {
		start, end := i*step, (i+1)*step
		if i == n-1 {
			end = size
		}
		lineEnd := endOfLine(data, end)
		if lineStart < lineEnd {
			result = append(result, Chunk{Start: start, End: end, LineStart: lineStart, LineEnd: lineEnd})
		}
		if lineEnd > lineStart {
			lineStart = lineEnd
		}
	}
	return result
}

// endOfLine scans forwards from pos and returns the offset just past the next
// new-line, or len(data) if there is none. A pos that already starts a line is
// returned unchanged.
func endOfLine(data []byte, pos int) int {
	if pos >= len(data) {
		return len(data)
	}
	if pos == 0 || data[pos-1] == '\n' {
		return pos
	}
	if n := IndexByte(data[pos:], '\n'); n != -1 {
		return pos + n + 1
	}
	return len(data)
}
