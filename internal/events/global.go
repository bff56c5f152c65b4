package events

import (
	"sync"
)

var (
	globalMu  sync.RWMutex
	globalBus EventBus
)

// SetGlobalEventBus installs the bus modules resolve at init time.
func SetGlobalEventBus(bus EventBus) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalBus = bus
}

// GetGlobalEventBus returns the installed bus, or nil before setup.
func GetGlobalEventBus() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}
