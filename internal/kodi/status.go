package kodi

import (
	"sync"
	"time"
)

// StatusRegistry keeps one ConnectionState record per configured device.
// Each record is only written by the client that talks to that device and
// is read out by value, so request handlers never share mutable state.
type StatusRegistry struct {
	mu     sync.RWMutex
	states map[int]ConnectionState
}

// NewStatusRegistry seeds a registry with an unknown state per device.
func NewStatusRegistry(devices []DeviceConfig) *StatusRegistry {
	states := make(map[int]ConnectionState, len(devices))
	for _, d := range devices {
		states[d.ID] = ConnectionState{Reachability: ReachabilityUnknown}
	}
	return &StatusRegistry{states: states}
}

// State returns a copy of the device's record. Unconfigured ids report
// unknown.
func (r *StatusRegistry) State(deviceID int) ConnectionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.states[deviceID]; ok {
		return s
	}
	return ConnectionState{Reachability: ReachabilityUnknown}
}

// markSuccess records a successful call. The whole record is replaced in
// one step so readers never see a partially updated state.
func (r *StatusRegistry) markSuccess(deviceID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[deviceID] = ConnectionState{
		Reachability: ReachabilityReachable,
		LastSuccess:  time.Now(),
	}
}

// markFailure records a failed call, keeping the last success timestamp.
// Once probed, a device never reverts to unknown.
func (r *StatusRegistry) markFailure(deviceID int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.states[deviceID]
	r.states[deviceID] = ConnectionState{
		Reachability: ReachabilityUnreachable,
		LastSuccess:  prev.LastSuccess,
		LastError:    err.Error(),
	}
}
