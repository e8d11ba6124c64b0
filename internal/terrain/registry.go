package terrain

import (
	"slices"
	"sync"

	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// AreaRegistry keeps registered areas sorted from highest to lowest priority.
// Lookups take a shared lock, so query workers run in parallel; mutations
// take the exclusive lock.
type AreaRegistry struct {
	mu      sync.RWMutex
	entries []AreaInfo
}

// NewAreaRegistry returns an empty registry.
func NewAreaRegistry() *AreaRegistry {
	return &AreaRegistry{}
}

// compareAreas sorts higher priority first; ids break ties so the order is stable.
func compareAreas(a, b AreaInfo) int {
	switch {
	case b.Priority.Less(a.Priority):
		return -1
	case a.Priority.Less(b.Priority):
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

func (r *AreaRegistry) indexOf(id AreaID) int {
	return slices.IndexFunc(r.entries, func(e AreaInfo) bool { return e.ID == id })
}

// Register adds the area. Returns false if the id is already registered.
func (r *AreaRegistry) Register(area Area) (AreaInfo, bool) {
	info := snapshotArea(area)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(info.ID) >= 0 {
		return AreaInfo{}, false
	}
	idx, _ := slices.BinarySearchFunc(r.entries, info, compareAreas)
	r.entries = slices.Insert(r.entries, idx, info)
	return info, true
}

// Unregister removes the area and returns its last cached entry.
func (r *AreaRegistry) Unregister(id AreaID) (AreaInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return AreaInfo{}, false
	}
	info := r.entries[idx]
	r.entries = slices.Delete(r.entries, idx, idx+1)
	return info, true
}

// Refresh re-reads bounds, priority and ground plane flag from the area.
// Returns the entry before and after the refresh.
func (r *AreaRegistry) Refresh(id AreaID) (before, after AreaInfo, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return AreaInfo{}, AreaInfo{}, false
	}
	before = r.entries[idx]
	after = snapshotArea(before.Area)
	after.ID = id

	if after.Priority == before.Priority {
		r.entries[idx] = after
	} else {
		r.entries = slices.Delete(r.entries, idx, idx+1)
		pos, _ := slices.BinarySearchFunc(r.entries, after, compareAreas)
		r.entries = slices.Insert(r.entries, pos, after)
	}
	return before, after, true
}

// FindBestAreaAtPosition returns the highest priority area whose bounds
// contain (x, y).
func (r *AreaRegistry) FindBestAreaAtPosition(x, y float32) (AreaInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].Bounds.ContainsXY(x, y) {
			return r.entries[i], true
		}
	}
	return AreaInfo{ID: InvalidAreaID}, false
}

// AnyOverlaps reports whether a registered area intersects bounds.
func (r *AreaRegistry) AnyOverlaps(bounds mathx.Aabb) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if r.entries[i].Bounds.Overlaps(bounds) {
			return true
		}
	}
	return false
}

// Areas returns the registered areas in priority order.
func (r *AreaRegistry) Areas() []AreaInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// Len returns the number of registered areas.
func (r *AreaRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every area and returns the union of their bounds.
func (r *AreaRegistry) Clear() mathx.Aabb {
	r.mu.Lock()
	defer r.mu.Unlock()

	region := mathx.NullAabb()
	for i := range r.entries {
		region = region.Union(r.entries[i].Bounds)
	}
	r.entries = nil
	return region
}
