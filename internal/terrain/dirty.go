package terrain

import (
	"sync"

	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// DirtyRegionTracker accumulates changed regions between ticks so that many
// changes in one frame produce one notification.
type DirtyRegionTracker struct {
	mu     sync.Mutex
	region mathx.Aabb
	mask   ChangeMask
}

// NewDirtyRegionTracker returns a clean tracker.
func NewDirtyRegionTracker() *DirtyRegionTracker {
	return &DirtyRegionTracker{region: mathx.NullAabb()}
}

// MarkDirty grows the pending region by bounds and sets the mask flags.
func (t *DirtyRegionTracker) MarkDirty(bounds mathx.Aabb, mask ChangeMask) {
	if mask == 0 {
		return
	}
	t.mu.Lock()
	t.region = t.region.Union(bounds)
	t.mask |= mask
	t.mu.Unlock()
}

// Pending returns the accumulated region and mask without clearing them.
func (t *DirtyRegionTracker) Pending() (mathx.Aabb, ChangeMask) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.region, t.mask
}

// Flush returns the accumulated change and resets the tracker.
// ok is false when nothing changed.
func (t *DirtyRegionTracker) Flush() (region mathx.Aabb, mask ChangeMask, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mask == 0 {
		return mathx.NullAabb(), 0, false
	}
	region, mask = t.region, t.mask
	t.region = mathx.NullAabb()
	t.mask = 0
	return region, mask, true
}

// Reset drops any pending change.
func (t *DirtyRegionTracker) Reset() {
	t.mu.Lock()
	t.region = mathx.NullAabb()
	t.mask = 0
	t.mu.Unlock()
}
