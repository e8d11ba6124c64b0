package terrain

import (
	"slices"

	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Listener is told once per tick about terrain data that changed.
type Listener interface {
	OnTerrainDataChanged(dirtyRegion mathx.Aabb, mask ChangeMask)
}

// LifecycleListener additionally hears about activation and deactivation.
type LifecycleListener interface {
	Listener
	OnTerrainDataCreateBegin()
	OnTerrainDataCreateEnd()
	OnTerrainDataDestroyBegin()
	OnTerrainDataDestroyEnd()
}

// AddListener subscribes l. Adding the same listener twice is a no-op.
func (s *System) AddListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if slices.Contains(s.listeners, l) {
		return
	}
	s.listeners = append(s.listeners, l)
}

// RemoveListener unsubscribes l.
func (s *System) RemoveListener(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if idx := slices.Index(s.listeners, l); idx >= 0 {
		s.listeners = slices.Delete(s.listeners, idx, idx+1)
	}
}

// snapshotListeners lets callbacks add or remove listeners without deadlocking.
func (s *System) snapshotListeners() []Listener {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return slices.Clone(s.listeners)
}

func (s *System) notifyChanged(region mathx.Aabb, mask ChangeMask) {
	for _, l := range s.snapshotListeners() {
		l.OnTerrainDataChanged(region, mask)
	}
}

func (s *System) notifyLifecycle(fn func(LifecycleListener)) {
	for _, l := range s.snapshotListeners() {
		if ll, ok := l.(LifecycleListener); ok {
			fn(ll)
		}
	}
}
