package gds

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoMemory is returned when an Allocator cannot satisfy a request.
var ErrNoMemory = errors.New("gds: out of memory")

// Pool is the memory region a buffer is taken from.
type Pool uint8

const (
	// PoolGeneral is ordinary memory.
	PoolGeneral Pool = iota
	// PoolDMA is memory a bus controller can stream from directly.
	PoolDMA
)

func (p Pool) String() string {
	if p == PoolDMA {
		return "dma"
	}
	return "general"
}

// AllocPolicy decides where the framebuffer is placed.
type AllocPolicy uint8

const (
	// AllocGeneral always uses PoolGeneral.
	AllocGeneral AllocPolicy = iota
	// AllocDMA always uses PoolDMA.
	AllocDMA
	// AllocDMAIfSPI uses PoolDMA when the bus is SPI.
	AllocDMAIfSPI
)

// Allocator hands out zeroed byte buffers.
type Allocator interface {
	Alloc(n int, p Pool) ([]byte, error)
	Free(b []byte, p Pool)
}

// Heap is the default Allocator. It is backed by the Go heap and enforces an
// optional byte budget per pool. A zero limit means unlimited.
type Heap struct {
	GeneralLimit int
	DMALimit     int

	mu   sync.Mutex
	used [2]int
}

// Alloc implements Allocator.
func (h *Heap) Alloc(n int, p Pool) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("gds: negative allocation %d", n)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	limit := h.GeneralLimit
	if p == PoolDMA {
		limit = h.DMALimit
	}
	if limit > 0 && h.used[p]+n > limit {
		return nil, fmt.Errorf("%w: %d bytes from %s pool (%d/%d in use)", ErrNoMemory, n, p, h.used[p], limit)
	}
	h.used[p] += n
	return make([]byte, n), nil
}

// Free implements Allocator.
func (h *Heap) Free(b []byte, p Pool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.used[p] -= len(b)
	if h.used[p] < 0 {
		h.used[p] = 0
	}
}

// InUse returns the number of bytes currently taken from p.
func (h *Heap) InUse(p Pool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.used[p]
}

type allocation struct {
	buf  []byte
	pool Pool
}
