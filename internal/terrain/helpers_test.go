package terrain

import (
	"sync"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/jobs"
	mathx "github.com/Faultbox/midgard-terrain/pkg/math"
)

// testArea is a configurable Area for tests.
type testArea struct {
	id          AreaID
	bounds      mathx.Aabb
	priority    Priority
	groundPlane bool
	height      func(x, y float32) (float32, bool)
	weights     func(x, y float32) []SurfaceTagWeight
}

func (a *testArea) ID() AreaID            { return a.id }
func (a *testArea) Bounds() mathx.Aabb    { return a.bounds }
func (a *testArea) Priority() Priority    { return a.priority }
func (a *testArea) UsesGroundPlane() bool { return a.groundPlane }

func (a *testArea) Height(x, y float32) (float32, bool) {
	if a.height == nil {
		return 0, true
	}
	return a.height(x, y)
}

func (a *testArea) SurfaceWeights(x, y float32, out []SurfaceTagWeight) []SurfaceTagWeight {
	if a.weights == nil {
		return out
	}
	return append(out, a.weights(x, y)...)
}

func newArea(bounds mathx.Aabb, height func(x, y float32) (float32, bool)) *testArea {
	return &testArea{id: NewAreaID(), bounds: bounds, height: height}
}

func constantHeight(h float32) func(x, y float32) (float32, bool) {
	return func(x, y float32) (float32, bool) { return h, true }
}

func planeXY(x, y float32) (float32, bool) { return x + y, true }

// testSettings is a (-16,-16,-5) to (16,16,50) world with a 1m grid.
func testSettings() Settings {
	return Settings{
		WorldBounds:           mathx.NewAabbFromValues(-16, -16, -5, 16, 16, 50),
		HeightQueryResolution: 1,
	}
}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem(testSettings(), jobs.NewPool(4))
	s.Activate()
	s.OnTick()
	t.Cleanup(s.Deactivate)
	return s
}

type changeEvent struct {
	region mathx.Aabb
	mask   ChangeMask
}

// recordingListener records every notification it receives.
type recordingListener struct {
	mu      sync.Mutex
	changes []changeEvent
	events  []string
}

func (l *recordingListener) OnTerrainDataChanged(region mathx.Aabb, mask ChangeMask) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, changeEvent{region: region, mask: mask})
	l.events = append(l.events, "changed")
}

func (l *recordingListener) OnTerrainDataCreateBegin()  { l.record("create_begin") }
func (l *recordingListener) OnTerrainDataCreateEnd()    { l.record("create_end") }
func (l *recordingListener) OnTerrainDataDestroyBegin() { l.record("destroy_begin") }
func (l *recordingListener) OnTerrainDataDestroyEnd()   { l.record("destroy_end") }

func (l *recordingListener) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingListener) Changes() []changeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]changeEvent(nil), l.changes...)
}

func (l *recordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}
