package terrain

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/jobs"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// Settings holds the values that affect query results.
type Settings struct {
	WorldBounds           mathx.Aabb
	HeightQueryResolution float32
	SystemActive          bool
}

// DefaultSettings returns a 1024x1024 world with a 1m query grid.
func DefaultSettings() Settings {
	return Settings{
		WorldBounds:           mathx.NewAabbFromValues(-512, -512, -128, 512, 512, 512),
		HeightQueryResolution: 1.0,
	}
}

// System owns the area registry and serves terrain queries.
//
// Settings are double buffered: setters change the requested settings and
// OnTick swaps them in, so in-flight async jobs keep a consistent view.
type System struct {
	registry *AreaRegistry
	dirty    *DirtyRegionTracker
	executor jobs.Executor

	current atomic.Pointer[Settings]

	settingsMu sync.Mutex
	requested  Settings

	// lifecycleMu guards active, rootGroup and additions to inflight.
	lifecycleMu sync.RWMutex
	active      bool
	rootGroup   *jobs.CancelGroup
	inflight    sync.WaitGroup

	defaultJobsPerRequest atomic.Int32

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewSystem creates an inactive terrain system. A nil executor gets a pool
// with one worker per CPU.
func NewSystem(settings Settings, executor jobs.Executor) *System {
	if executor == nil {
		executor = jobs.NewPool(0)
	}
	if settings.HeightQueryResolution <= 0 {
		logger.Warn("invalid height query resolution, using default",
			zap.Float32("resolution", settings.HeightQueryResolution))
		settings.HeightQueryResolution = DefaultSettings().HeightQueryResolution
	}
	settings.SystemActive = false

	s := &System{
		registry:  NewAreaRegistry(),
		dirty:     NewDirtyRegionTracker(),
		executor:  executor,
		requested: settings,
	}
	current := settings
	s.current.Store(&current)
	return s
}

// Registry exposes the area registry for read access.
func (s *System) Registry() *AreaRegistry {
	return s.registry
}

// SetDefaultJobsPerRequest caps async jobs when a request does not ask for a
// specific count. n <= 0 removes the cap.
func (s *System) SetDefaultJobsPerRequest(n int) {
	s.defaultJobsPerRequest.Store(int32(max(n, 0)))
}

// Activate turns the system on. The whole world is marked dirty so the next
// tick notifies listeners.
func (s *System) Activate() {
	s.lifecycleMu.Lock()
	if s.active {
		s.lifecycleMu.Unlock()
		return
	}
	s.active = true
	s.rootGroup = jobs.NewCancelGroup(nil)

	s.settingsMu.Lock()
	s.requested.SystemActive = true
	current := s.requested
	s.settingsMu.Unlock()
	s.current.Store(&current)
	s.lifecycleMu.Unlock()

	if !current.WorldBounds.IsValid() {
		logger.Error("terrain system activated with invalid world bounds",
			zap.Any("bounds", current.WorldBounds))
	}

	s.notifyLifecycle(func(l LifecycleListener) { l.OnTerrainDataCreateBegin() })
	s.dirty.MarkDirty(current.WorldBounds, ChangeAll)
	logger.Info("terrain system activated",
		zap.Any("world_bounds", current.WorldBounds),
		zap.Float32("resolution", current.HeightQueryResolution),
		zap.Int("workers", s.executor.NumWorkers()))
	s.notifyLifecycle(func(l LifecycleListener) { l.OnTerrainDataCreateEnd() })
}

// Deactivate cancels in-flight async requests, waits for their jobs to
// finish and drops every registered area.
// It must not be called from a query callback.
func (s *System) Deactivate() {
	s.lifecycleMu.Lock()
	if !s.active {
		s.lifecycleMu.Unlock()
		return
	}
	s.active = false
	s.rootGroup.Cancel()
	s.lifecycleMu.Unlock()

	s.inflight.Wait()

	s.notifyLifecycle(func(l LifecycleListener) { l.OnTerrainDataDestroyBegin() })

	s.registry.Clear()
	s.dirty.Reset()

	s.settingsMu.Lock()
	s.requested.SystemActive = false
	current := s.requested
	s.settingsMu.Unlock()
	s.current.Store(&current)

	logger.Info("terrain system deactivated")
	s.notifyLifecycle(func(l LifecycleListener) { l.OnTerrainDataDestroyEnd() })
}

// IsActive reports whether Activate has been called without a matching Deactivate.
func (s *System) IsActive() bool {
	s.lifecycleMu.RLock()
	defer s.lifecycleMu.RUnlock()
	return s.active
}

// Settings returns the settings currently used by queries.
func (s *System) Settings() Settings {
	return *s.current.Load()
}

// RequestedSettings returns the settings that the next tick will apply.
func (s *System) RequestedSettings() Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.requested
}

// SetTerrainAabb requests new world bounds.
func (s *System) SetTerrainAabb(bounds mathx.Aabb) {
	if !bounds.IsValid() {
		logger.Warn("ignoring invalid world bounds", zap.Any("bounds", bounds))
		return
	}
	s.settingsMu.Lock()
	s.requested.WorldBounds = bounds
	s.settingsMu.Unlock()
}

// SetTerrainHeightQueryResolution requests a new height query grid spacing.
func (s *System) SetTerrainHeightQueryResolution(resolution float32) {
	if resolution <= 0 {
		logger.Warn("ignoring non-positive height query resolution", zap.Float32("resolution", resolution))
		return
	}
	s.settingsMu.Lock()
	s.requested.HeightQueryResolution = resolution
	s.settingsMu.Unlock()
}

// GetTerrainAabb returns the current world bounds.
func (s *System) GetTerrainAabb() mathx.Aabb {
	return s.current.Load().WorldBounds
}

// GetTerrainHeightQueryResolution returns the current grid spacing.
func (s *System) GetTerrainHeightQueryResolution() float32 {
	return s.current.Load().HeightQueryResolution
}

// ApplyPendingSettings copies the requested settings into the current ones.
// On change, the union of old and new world bounds is marked dirty.
func (s *System) ApplyPendingSettings() bool {
	s.settingsMu.Lock()
	requested := s.requested
	s.settingsMu.Unlock()

	old := s.current.Load()
	if *old == requested {
		return false
	}
	s.current.Store(&requested)

	s.dirty.MarkDirty(old.WorldBounds.Union(requested.WorldBounds), ChangeAll)
	logger.Debug("terrain settings applied",
		zap.Any("world_bounds", requested.WorldBounds),
		zap.Float32("resolution", requested.HeightQueryResolution))
	return true
}

// OnTick applies pending settings and emits at most one change notification
// covering everything that changed since the previous tick.
func (s *System) OnTick() {
	s.ApplyPendingSettings()

	region, mask, ok := s.dirty.Flush()
	if !ok {
		return
	}
	logger.Debug("terrain data changed", zap.Any("region", region), zap.Stringer("mask", mask))
	s.notifyChanged(region, mask)
}

// RegisterArea adds an area and marks its bounds dirty. Registering the same
// id twice is a no-op.
func (s *System) RegisterArea(area Area) {
	if s.IsActive() && !s.GetTerrainAabb().IsValid() {
		logger.Error("registering terrain area while world bounds are invalid", zap.String("area", string(area.ID())))
	}

	info, ok := s.registry.Register(area)
	if !ok {
		logger.Warn("terrain area already registered", zap.String("area", string(area.ID())))
		return
	}
	s.dirty.MarkDirty(info.Bounds, ChangeHeightData|ChangeSurfaceData)
	logger.Debug("terrain area registered",
		zap.String("area", string(info.ID)),
		zap.Any("bounds", info.Bounds),
		zap.Int("layer", info.Priority.Layer))
}

// UnregisterArea removes an area and marks its last known bounds dirty.
func (s *System) UnregisterArea(id AreaID) {
	info, ok := s.registry.Unregister(id)
	if !ok {
		logger.Warn("unregistering unknown terrain area", zap.String("area", string(id)))
		return
	}
	s.dirty.MarkDirty(info.Bounds, ChangeHeightData|ChangeSurfaceData)
	logger.Debug("terrain area unregistered", zap.String("area", string(id)))
}

// RefreshArea re-reads the area's bounds, priority and ground plane flag.
// mask says which data changed; zero means both height and surface data.
func (s *System) RefreshArea(id AreaID, mask ChangeMask) {
	before, after, ok := s.registry.Refresh(id)
	if !ok {
		logger.Warn("refreshing unknown terrain area", zap.String("area", string(id)))
		return
	}
	if mask&(ChangeHeightData|ChangeSurfaceData) == 0 {
		mask |= ChangeHeightData | ChangeSurfaceData
	}
	s.dirty.MarkDirty(before.Bounds.Union(after.Bounds), mask)
}

// FindBestAreaAtPosition returns the area that answers queries at (x, y).
func (s *System) FindBestAreaAtPosition(x, y float32) (AreaInfo, bool) {
	return s.registry.FindBestAreaAtPosition(x, y)
}

// TerrainAreaExistsInBounds reports whether any area overlaps bounds.
func (s *System) TerrainAreaExistsInBounds(bounds mathx.Aabb) bool {
	return s.registry.AnyOverlaps(bounds)
}
