package rules

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/freebuild/server/internal/config"
)

// Evaluator holds the immutable toggle set and any extension rules. One
// evaluator lives for the whole process; the host calls Evaluate once per
// placement query, on its simulation goroutine.
type Evaluator struct {
	cfg      config.Placement
	log      *zap.Logger
	extra    []ExtraRule
	failOnce sync.Once
}

func NewEvaluator(cfg config.Placement, log *zap.Logger, extra ...ExtraRule) *Evaluator {
	return &Evaluator{cfg: cfg, log: log, extra: extra}
}

// Evaluate decides buildability for one tile. Checks run in a fixed order
// and the first decisive one wins; if none object the tile is buildable.
//
// A panic out of any host query is recovered here: the failure is logged
// once per evaluator lifetime and the call defers to the baseline rule, so
// a faulty host implementation can never crash or wedge placement.
func (e *Evaluator) Evaluate(h Host, t Tile) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			e.failOnce.Do(func() {
				e.log.Error("placement query failed, deferring to baseline rule",
					zap.Any("panic", r),
					zap.Int32("x", t.X),
					zap.Int32("y", t.Y))
			})
			v = Defer
		}
	}()

	if e.cfg.EverythingEnabled() {
		return Buildable
	}
	if e.cfg.EverythingDisabled() {
		return Defer
	}

	if !e.cfg.BuildOnAllTerrainFeatures {
		if f, ok := h.TerrainFeatureAt(t); ok && f.Bounds().Intersects(TileRect(t)) {
			if !f.Passable() || f.HasCrop() {
				return NotBuildable
			}
		}
	}

	if !e.cfg.BuildOnOtherBuildings {
		for _, b := range h.Buildings() {
			if b.OccupiesTile(t) {
				return NotBuildable
			}
		}
	}

	if !e.cfg.BuildOnWater {
		if _, water := h.TileProperty(t, LayerBack, PropWater); water {
			if _, allowed := h.TileProperty(t, LayerBuildings, PropPassable); !allowed {
				return NotBuildable
			}
		}
	}

	// When the water toggle is on, open-water tiles are exempt from the
	// impassable check. Ordering matches the host's original rule.
	openWater := e.cfg.BuildOnWater && h.OpenWater(t)

	if !e.cfg.BuildOnImpassableTiles && !openWater {
		if h.TileOccupiedForPlacement(t) || !h.TilePassable(t) {
			return NotBuildable
		}
	}

	if !e.cfg.BuildOnNoFurnitureTiles {
		if _, ok := h.TileProperty(t, LayerBack, PropNoFurniture); ok {
			return NotBuildable
		}
	}

	if !e.cfg.BuildOnCaveAndShippingZones {
		if val, ok := h.TileProperty(t, LayerBack, PropBuildable); ok {
			if strings.EqualFold(val, "f") || strings.EqualFold(val, "false") {
				return NotBuildable
			}
		}
	}

	// Operator extension rules run last: they can tighten the verdict or
	// explicitly allow, but never bypass the configured checks above.
	for _, rule := range e.extra {
		if verdict := rule(h, t); verdict != Defer {
			return verdict
		}
	}

	return Buildable
}
