package world

import (
	"sort"
	"sync/atomic"
)

// Zone is an operator-designated rectangular no-build region. Bounds are
// inclusive on both corners.
type Zone struct {
	ID    int32
	MapID int16
	Name  string
	X1    int32
	Y1    int32
	X2    int32
	Y2    int32
}

func (z Zone) Contains(x, y int32) bool {
	return z.X1 <= x && x <= z.X2 && z.Y1 <= y && y <= z.Y2
}

type zoneSet struct {
	byMap map[int16][]Zone
	all   []Zone
}

// ZoneIndex is the live set of no-build zones. The set is swapped
// wholesale on admin mutation, so readers never lock.
type ZoneIndex struct {
	cur atomic.Pointer[zoneSet]
}

func NewZoneIndex(zones []Zone) *ZoneIndex {
	idx := &ZoneIndex{}
	idx.Replace(zones)
	return idx
}

// Replace installs a new zone set, normalizing corner order.
func (idx *ZoneIndex) Replace(zones []Zone) {
	set := &zoneSet{byMap: make(map[int16][]Zone, len(zones))}
	for _, z := range zones {
		if z.X1 > z.X2 {
			z.X1, z.X2 = z.X2, z.X1
		}
		if z.Y1 > z.Y2 {
			z.Y1, z.Y2 = z.Y2, z.Y1
		}
		set.byMap[z.MapID] = append(set.byMap[z.MapID], z)
		set.all = append(set.all, z)
	}
	sort.Slice(set.all, func(i, j int) bool { return set.all[i].ID < set.all[j].ID })
	idx.cur.Store(set)
}

// Contains reports whether any zone on the map covers (x, y).
func (idx *ZoneIndex) Contains(mapID int16, x, y int32) bool {
	for _, z := range idx.cur.Load().byMap[mapID] {
		if z.Contains(x, y) {
			return true
		}
	}
	return false
}

// All returns the current zones sorted by id.
func (idx *ZoneIndex) All() []Zone {
	return idx.cur.Load().all
}
