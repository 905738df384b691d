// Package world provides the map-data backend for placement evaluation:
// per-tile flag bytes loaded from CSV files, terrain features and buildings
// from the YAML map list, and operator no-build zones.
package world

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freebuild/server/internal/rules"
)

// Tile flag bits stored per cell in the {mapid}.txt files.
const (
	tilePassable          byte = 0x01 // bit 0 — walkable ground
	tileWater             byte = 0x02 // bit 1 — Back/Water
	tileBuildingsPassable byte = 0x04 // bit 2 — Buildings/Passable override
	tileNoFurniture       byte = 0x08 // bit 3 — Back/NoFurniture
	tileNoBuild           byte = 0x10 // bit 4 — Back/Buildable = "f"
	tileMarkedBuildable   byte = 0x20 // bit 5 — Back/Buildable = "t"
	tileOccupied          byte = 0x80 // bit 7 — dynamic placement occupancy
)

// MapInfo holds metadata for a single map, loaded from the world YAML.
type MapInfo struct {
	MapID     int16         `yaml:"map_id"`
	Name      string        `yaml:"name"`
	StartX    int32         `yaml:"start_x"`
	EndX      int32         `yaml:"end_x"`
	StartY    int32         `yaml:"start_y"`
	EndY      int32         `yaml:"end_y"`
	Features  []FeatureDef  `yaml:"features"`
	Buildings []BuildingDef `yaml:"buildings"`
}

// FeatureDef describes one terrain feature in the world YAML.
type FeatureDef struct {
	Kind     string `yaml:"kind"`
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
	W        int32  `yaml:"w"` // 0 means 1
	H        int32  `yaml:"h"` // 0 means 1
	Passable bool   `yaml:"passable"`
	Crop     bool   `yaml:"crop"` // soil with a planted crop
}

// BuildingDef describes one pre-placed building footprint.
type BuildingDef struct {
	Name string `yaml:"name"`
	X    int32  `yaml:"x"`
	Y    int32  `yaml:"y"`
	W    int32  `yaml:"w"`
	H    int32  `yaml:"h"`
}

// Feature is a placed terrain feature implementing rules.TerrainFeature.
type Feature struct {
	Kind     string
	bounds   rules.Rect
	passable bool
	crop     bool
}

func (f *Feature) Bounds() rules.Rect { return f.bounds }
func (f *Feature) Passable() bool     { return f.passable }
func (f *Feature) HasCrop() bool      { return f.crop }

// Building is a placed structure implementing rules.Building.
type Building struct {
	Name   string
	bounds rules.Rect
}

func (b *Building) OccupiesTile(t rules.Tile) bool {
	return b.bounds.Intersects(rules.TileRect(t))
}

func (b *Building) Bounds() rules.Rect { return b.bounds }

// mapEntry stores loaded tile data plus metadata for one map.
type mapEntry struct {
	info      MapInfo
	tiles     []byte // flat array [x * height + y], row-major by X
	width     int32
	height    int32
	features  []*Feature
	buildings []*Building
}

// Table provides map tile data and metadata lookups. Tile flags are
// read-only after Load except for the dynamic occupied bit.
type Table struct {
	maps map[int16]*mapEntry
}

type worldFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// Load reads map metadata from the world YAML and tile flags from CSV
// files in tileDir. Maps whose tile file is missing are skipped.
func Load(yamlPath, tileDir string) (*Table, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read world file %s: %w", yamlPath, err)
	}
	var file worldFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse world file: %w", err)
	}

	table := &Table{
		maps: make(map[int16]*mapEntry, len(file.Maps)),
	}

	for _, info := range file.Maps {
		width := info.EndX - info.StartX + 1
		height := info.EndY - info.StartY + 1
		if width <= 0 || height <= 0 {
			continue
		}

		tiles, err := loadTileFile(tileDir, int(info.MapID), int(width), int(height))
		if err != nil {
			continue
		}

		entry := &mapEntry{
			info:   info,
			tiles:  tiles,
			width:  width,
			height: height,
		}
		for _, fd := range info.Features {
			w, h := fd.W, fd.H
			if w <= 0 {
				w = 1
			}
			if h <= 0 {
				h = 1
			}
			entry.features = append(entry.features, &Feature{
				Kind:     fd.Kind,
				bounds:   rules.Rect{X: fd.X, Y: fd.Y, W: w, H: h},
				passable: fd.Passable,
				crop:     fd.Crop,
			})
		}
		for _, bd := range info.Buildings {
			entry.buildings = append(entry.buildings, &Building{
				Name:   bd.Name,
				bounds: rules.Rect{X: bd.X, Y: bd.Y, W: bd.W, H: bd.H},
			})
		}
		table.maps[info.MapID] = entry
	}

	return table, nil
}

// loadTileFile reads a CSV tile file: each line is a row of comma-separated
// flag bytes. File rows = Y lines, columns = X values.
func loadTileFile(dir string, mapID, xSize, ySize int) ([]byte, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tiles := make([]byte, xSize*ySize)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < ySize {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= xSize {
				break
			}
			val, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 16)
			if err != nil {
				val = 0
			}
			tiles[x*ySize+y] = byte(val)
			x++
		}
		y++
	}

	return tiles, scanner.Err()
}

// Count returns the number of maps loaded with tile data.
func (t *Table) Count() int {
	return len(t.maps)
}

// GetInfo returns metadata for a map, or nil if not found.
func (t *Table) GetInfo(mapID int16) *MapInfo {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return &e.info
}

// MapIDs returns the loaded map ids in unspecified order.
func (t *Table) MapIDs() []int16 {
	out := make([]int16, 0, len(t.maps))
	for id := range t.maps {
		out = append(out, id)
	}
	return out
}

// at returns the tile flag byte at world coordinates, or 0 out of bounds.
func (e *mapEntry) at(x, y int32) byte {
	lx := x - e.info.StartX
	ly := y - e.info.StartY
	if lx < 0 || lx >= e.width || ly < 0 || ly >= e.height {
		return 0
	}
	return e.tiles[int(lx)*int(e.height)+int(ly)]
}

// setFlag sets or clears one flag bit at world coordinates.
func (e *mapEntry) setFlag(x, y int32, flag byte, on bool) {
	lx := x - e.info.StartX
	ly := y - e.info.StartY
	if lx < 0 || lx >= e.width || ly < 0 || ly >= e.height {
		return
	}
	idx := int(lx)*int(e.height) + int(ly)
	if on {
		e.tiles[idx] |= flag
	} else {
		e.tiles[idx] &^= flag
	}
}

// IsInMap checks if world coordinates are within the map bounds.
func (t *Table) IsInMap(mapID int16, x, y int32) bool {
	e := t.maps[mapID]
	if e == nil {
		return false
	}
	return e.info.StartX <= x && x <= e.info.EndX &&
		e.info.StartY <= y && y <= e.info.EndY
}
