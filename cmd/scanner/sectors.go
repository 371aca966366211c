package main

import (
	"sync"

	"SwingScanner/internal/universe"
)

// sectorHolder lets the long-running scheduler swap in a reloaded universe.
type sectorHolder struct {
	mu sync.RWMutex
	u  *universe.Universe
}

func (h *sectorHolder) set(u *universe.Universe) {
	h.mu.Lock()
	h.u = u
	h.mu.Unlock()
}

func (h *sectorHolder) Sector(ticker string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.u.Sector(ticker)
}
