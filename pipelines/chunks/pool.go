// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package chunks

import (
	"sync"
	"unsafe"
)

// DefaultBlockSize is the block size used when a Pool is created with size <= 0.
const DefaultBlockSize = 64 * 1024

// Pool is an arena that hands out storage from large fixed-size blocks.
// Requests larger than a block get a dedicated block.
//
// Storage handed out by a Pool stays valid after Reset; Reset drops the
// pool's references to its blocks instead of reusing them.
type Pool struct {
	mu        sync.Mutex
	blockSize int
	current   []byte
	blocks    int
	allocated int64
}

// NewPool returns an empty pool with the given block size.
func NewPool(blockSize int) *Pool {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Pool{blockSize: blockSize}
}

// Alloc returns n zeroed bytes.
func (p *Pool) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allocated += int64(n)
	if n > p.blockSize {
		p.blocks++
		return make([]byte, n)
	}
	if len(p.current)+n > cap(p.current) {
		p.current = make([]byte, 0, p.blockSize)
		p.blocks++
	}
	start := len(p.current)
	p.current = p.current[:start+n]
	return p.current[start : start+n : start+n]
}

// String copies b into the pool and returns it as a string.
func (p *Pool) String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	buf := p.Alloc(len(b))
	copy(buf, b)
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}

// Reset starts a new generation of blocks and clears the counters.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current, p.blocks, p.allocated = nil, 0, 0
}

// Allocated returns the number of bytes handed out since the last Reset.
func (p *Pool) Allocated() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

// Blocks returns the number of blocks obtained since the last Reset.
func (p *Pool) Blocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks
}
