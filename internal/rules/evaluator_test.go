package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/freebuild/server/internal/config"
)

type fakeFeature struct {
	bounds   Rect
	passable bool
	crop     bool
}

func (f fakeFeature) Bounds() Rect   { return f.bounds }
func (f fakeFeature) Passable() bool { return f.passable }
func (f fakeFeature) HasCrop() bool  { return f.crop }

type fakeBuilding struct {
	bounds Rect
}

func (b fakeBuilding) OccupiesTile(t Tile) bool {
	return b.bounds.Intersects(TileRect(t))
}

// fakeHost answers every query from fixed fields. Passable by default.
type fakeHost struct {
	feature   *fakeFeature
	buildings []Building
	props     map[[2]string]string
	occupied  bool
	passable  bool
	openWater bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{passable: true, props: map[[2]string]string{}}
}

func (h *fakeHost) TerrainFeatureAt(Tile) (TerrainFeature, bool) {
	if h.feature == nil {
		return nil, false
	}
	return *h.feature, true
}

func (h *fakeHost) Buildings() []Building { return h.buildings }

func (h *fakeHost) TileProperty(_ Tile, layer, name string) (string, bool) {
	v, ok := h.props[[2]string{layer, name}]
	return v, ok
}

func (h *fakeHost) TileOccupiedForPlacement(Tile) bool { return h.occupied }
func (h *fakeHost) TilePassable(Tile) bool             { return h.passable }
func (h *fakeHost) OpenWater(Tile) bool                { return h.openWater }

// hostileHost is a fully obstructed tile: impassable feature, building,
// water, occupied, impassable, no-furniture, no-build.
func hostileHost() *fakeHost {
	h := newFakeHost()
	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}}
	h.buildings = []Building{fakeBuilding{bounds: Rect{X: 0, Y: 0, W: 4, H: 4}}}
	h.props[[2]string{LayerBack, PropWater}] = "T"
	h.props[[2]string{LayerBack, PropNoFurniture}] = "T"
	h.props[[2]string{LayerBack, PropBuildable}] = "f"
	h.occupied = true
	h.passable = false
	return h
}

func allEnabled() config.Placement {
	return config.Placement{
		BuildOnAllTerrainFeatures:   true,
		BuildOnOtherBuildings:       true,
		BuildOnWater:                true,
		BuildOnImpassableTiles:      true,
		BuildOnNoFurnitureTiles:     true,
		BuildOnCaveAndShippingZones: true,
	}
}

// allExcept returns a toggle set with everything on except the named check,
// so each test isolates one gate without hitting the fast paths.
func allExcept(mut func(*config.Placement)) config.Placement {
	cfg := allEnabled()
	mut(&cfg)
	return cfg
}

func newTestEvaluator(cfg config.Placement, extra ...ExtraRule) *Evaluator {
	return NewEvaluator(cfg, zap.NewNop(), extra...)
}

func TestEverythingEnabledIgnoresHost(t *testing.T) {
	e := newTestEvaluator(allEnabled())
	assert.Equal(t, Buildable, e.Evaluate(hostileHost(), Tile{}))
}

func TestEverythingDisabledDefers(t *testing.T) {
	e := newTestEvaluator(config.Placement{})
	assert.Equal(t, Defer, e.Evaluate(hostileHost(), Tile{}))
	assert.Equal(t, Defer, e.Evaluate(newFakeHost(), Tile{}))
}

func TestTerrainFeatureCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnAllTerrainFeatures = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}, passable: false}
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}), "impassable feature blocks")

	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}, passable: true, crop: true}
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}), "planted soil blocks even when passable")

	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}, passable: true}
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}), "plain passable feature does not block")

	h.feature = &fakeFeature{bounds: Rect{X: 5, Y: 5, W: 1, H: 1}, passable: false}
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}), "feature outside the cell is ignored")
}

func TestTerrainFeatureToggleSkipsCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnOtherBuildings = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}, passable: false}
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}))
}

func TestBuildingCollision(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnOtherBuildings = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.buildings = []Building{fakeBuilding{bounds: Rect{X: 2, Y: 2, W: 3, H: 2}}}
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{X: 3, Y: 3}))
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{X: 0, Y: 0}))
}

func TestWaterCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnWater = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.props[[2]string{LayerBack, PropWater}] = "T"
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}), "water blocks")

	h.props[[2]string{LayerBuildings, PropPassable}] = "T"
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}),
		"buildings-passable override proceeds past the water check")

	delete(h.props, [2]string{LayerBack, PropWater})
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}))
}

func TestOpenWaterExemptsImpassableCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnImpassableTiles = false })
	require.True(t, cfg.BuildOnWater)
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.passable = false
	h.openWater = true
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}),
		"open water with the water toggle on skips the impassable check")

	h.openWater = false
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}))
}

func TestOpenWaterExemptionRequiresWaterToggle(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) {
		p.BuildOnWater = false
		p.BuildOnImpassableTiles = false
	})
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.passable = false
	h.openWater = true
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}))
}

func TestOccupiedTileBlocks(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnImpassableTiles = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.occupied = true
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}))
}

func TestNoFurnitureCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnNoFurnitureTiles = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	h.props[[2]string{LayerBack, PropNoFurniture}] = "T"
	assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}))

	delete(h.props, [2]string{LayerBack, PropNoFurniture})
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}))
}

func TestNoBuildZoneCheck(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnCaveAndShippingZones = false })
	e := newTestEvaluator(cfg)

	h := newFakeHost()
	for _, val := range []string{"f", "F", "false", "FALSE", "False"} {
		h.props[[2]string{LayerBack, PropBuildable}] = val
		assert.Equal(t, NotBuildable, e.Evaluate(h, Tile{}), "value %q", val)
	}

	h.props[[2]string{LayerBack, PropBuildable}] = "t"
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}), "explicit true does not reject")

	delete(h.props, [2]string{LayerBack, PropBuildable})
	assert.Equal(t, Buildable, e.Evaluate(h, Tile{}), "absent property does not reject")
}

// panicHost simulates a faulty host query implementation.
type panicHost struct {
	*fakeHost
}

func (h panicHost) TileProperty(Tile, string, string) (string, bool) {
	panic("tile sheet gone")
}

func TestQueryFailureLogsOnceAndDefers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	cfg := allExcept(func(p *config.Placement) { p.BuildOnWater = false })
	e := NewEvaluator(cfg, zap.New(core))

	h := panicHost{newFakeHost()}
	for i := 0; i < 5; i++ {
		assert.Equal(t, Defer, e.Evaluate(h, Tile{X: 1, Y: 2}))
	}
	assert.Equal(t, 1, logs.Len(), "repeated failures log exactly once")
}

func TestExtraRules(t *testing.T) {
	cfg := allExcept(func(p *config.Placement) { p.BuildOnAllTerrainFeatures = false })

	deny := func(Host, Tile) Verdict { return NotBuildable }
	allow := func(Host, Tile) Verdict { return Buildable }
	pass := func(Host, Tile) Verdict { return Defer }

	h := newFakeHost()
	assert.Equal(t, NotBuildable, newTestEvaluator(cfg, deny).Evaluate(h, Tile{}))
	assert.Equal(t, Buildable, newTestEvaluator(cfg, pass, allow).Evaluate(h, Tile{}))
	assert.Equal(t, Buildable, newTestEvaluator(cfg, pass).Evaluate(h, Tile{}),
		"all rules passing falls through to buildable")

	// Built-in checks still run before extension rules.
	h.feature = &fakeFeature{bounds: Rect{X: 0, Y: 0, W: 1, H: 1}, passable: false}
	assert.Equal(t, NotBuildable, newTestEvaluator(cfg, allow).Evaluate(h, Tile{}))
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 2, H: 2}
	assert.True(t, a.Intersects(Rect{X: 1, Y: 1, W: 2, H: 2}))
	assert.False(t, a.Intersects(Rect{X: 2, Y: 0, W: 1, H: 1}), "touching edges do not overlap")
	assert.True(t, a.Intersects(TileRect(Tile{X: 1, Y: 0})))
	assert.False(t, a.Intersects(TileRect(Tile{X: -1, Y: 0})))
}
