// Package rules implements the tile-buildability override predicate.
//
// The evaluator walks a fixed sequence of guard clauses, each gated by an
// operator toggle, and returns the first decisive verdict. Everything it
// knows about the map arrives through the Host interface per call; nothing
// is cached between calls.
package rules

// Verdict is the predicate's answer for one tile.
type Verdict int

const (
	// Defer leaves the decision to the host's baseline placement rule.
	Defer Verdict = iota
	Buildable
	NotBuildable
)

func (v Verdict) String() string {
	switch v {
	case Buildable:
		return "buildable"
	case NotBuildable:
		return "not_buildable"
	default:
		return "defer"
	}
}

// Tile identifies one map cell.
type Tile struct {
	X int32
	Y int32
}

// Rect is an axis-aligned box in tile units.
type Rect struct {
	X int32
	Y int32
	W int32
	H int32
}

// Intersects reports whether the two rects share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// TileRect returns the 1×1 cell covered by t.
func TileRect(t Tile) Rect {
	return Rect{X: t.X, Y: t.Y, W: 1, H: 1}
}

// Layer and property names follow the host's tile-sheet conventions.
const (
	LayerBack      = "Back"
	LayerBuildings = "Buildings"

	PropWater       = "Water"
	PropPassable    = "Passable"
	PropNoFurniture = "NoFurniture"
	PropBuildable   = "Buildable"
)

// TerrainFeature is a map decoration (tree, rock, tilled soil) with
// placement-relevant geometry and state.
type TerrainFeature interface {
	Bounds() Rect
	Passable() bool
	// HasCrop reports whether the feature is soil bearing a planted crop.
	HasCrop() bool
}

// Building is an already-placed structure.
type Building interface {
	OccupiesTile(Tile) bool
}

// Host exposes the read-only spatial queries the predicate consumes. All
// implementations are external collaborators; the evaluator never mutates
// or caches what they return.
type Host interface {
	// TerrainFeatureAt returns the feature anchored at or covering the tile.
	TerrainFeatureAt(Tile) (TerrainFeature, bool)
	Buildings() []Building
	// TileProperty looks up a named property on a tile-sheet layer. The
	// second return is false when the property is absent.
	TileProperty(t Tile, layer, name string) (string, bool)
	TileOccupiedForPlacement(Tile) bool
	TilePassable(Tile) bool
	// OpenWater reports deep/unbounded water, as opposed to edge water.
	OpenWater(Tile) bool
}

// ExtraRule is a supplemental predicate consulted after the built-in
// checks. Defer means the rule has no opinion on the tile.
type ExtraRule func(h Host, t Tile) Verdict
