package world

import (
	"github.com/freebuild/server/internal/rules"
)

// Location binds one map to its tile data and the live zone index. It
// implements the spatial queries the placement evaluator consumes.
type Location struct {
	entry *mapEntry
	zones *ZoneIndex
}

// Location returns the query surface for one map. zones may be nil when no
// operator zones are loaded (offline tools).
func (t *Table) Location(mapID int16, zones *ZoneIndex) (*Location, bool) {
	e := t.maps[mapID]
	if e == nil {
		return nil, false
	}
	return &Location{entry: e, zones: zones}, true
}

// MapID identifies the bound map; the scripting bridge passes it to rules.
func (l *Location) MapID() int16 {
	return l.entry.info.MapID
}

func (l *Location) TerrainFeatureAt(t rules.Tile) (rules.TerrainFeature, bool) {
	cell := rules.TileRect(t)
	for _, f := range l.entry.features {
		if f.bounds.Intersects(cell) {
			return f, true
		}
	}
	return nil, false
}

func (l *Location) Buildings() []rules.Building {
	out := make([]rules.Building, len(l.entry.buildings))
	for i, b := range l.entry.buildings {
		out[i] = b
	}
	return out
}

// TileProperty maps tile flag bits (and operator zones) onto the host's
// layer/name property scheme.
func (l *Location) TileProperty(t rules.Tile, layer, name string) (string, bool) {
	flags := l.entry.at(t.X, t.Y)
	switch {
	case layer == rules.LayerBack && name == rules.PropWater:
		if flags&tileWater != 0 {
			return "T", true
		}
	case layer == rules.LayerBuildings && name == rules.PropPassable:
		if flags&tileBuildingsPassable != 0 {
			return "T", true
		}
	case layer == rules.LayerBack && name == rules.PropNoFurniture:
		if flags&tileNoFurniture != 0 {
			return "T", true
		}
	case layer == rules.LayerBack && name == rules.PropBuildable:
		if flags&tileNoBuild != 0 {
			return "f", true
		}
		if l.zones != nil && l.zones.Contains(l.entry.info.MapID, t.X, t.Y) {
			return "f", true
		}
		if flags&tileMarkedBuildable != 0 {
			return "t", true
		}
	}
	return "", false
}

// TileOccupiedForPlacement reports the dynamic occupancy bit, set by the
// host for characters and placed objects.
func (l *Location) TileOccupiedForPlacement(t rules.Tile) bool {
	return l.entry.at(t.X, t.Y)&tileOccupied != 0
}

func (l *Location) TilePassable(t rules.Tile) bool {
	return l.entry.at(t.X, t.Y)&tilePassable != 0
}

// OpenWater reports deep water: a water tile whose four orthogonal
// neighbours are also water. Out-of-bounds neighbours count as land, so
// shoreline and map-edge water is never open.
func (l *Location) OpenWater(t rules.Tile) bool {
	if l.entry.at(t.X, t.Y)&tileWater == 0 {
		return false
	}
	for _, d := range [4][2]int32{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
		if l.entry.at(t.X+d[0], t.Y+d[1])&tileWater == 0 {
			return false
		}
	}
	return true
}

// SetOccupied toggles the dynamic occupancy bit (host-driven).
func (l *Location) SetOccupied(t rules.Tile, occupied bool) {
	l.entry.setFlag(t.X, t.Y, tileOccupied, occupied)
}

var _ rules.Host = (*Location)(nil)
