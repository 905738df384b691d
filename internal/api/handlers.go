package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/freebuild/server/internal/persist"
	"github.com/freebuild/server/internal/rules"
	"github.com/freebuild/server/internal/world"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

type configBody struct {
	BuildOnAllTerrainFeatures   bool `json:"build_on_all_terrain_features"`
	BuildOnOtherBuildings       bool `json:"build_on_other_buildings"`
	BuildOnWater                bool `json:"build_on_water"`
	BuildOnImpassableTiles      bool `json:"build_on_impassable_tiles"`
	BuildOnNoFurnitureTiles     bool `json:"build_on_no_furniture_tiles"`
	BuildOnCaveAndShippingZones bool `json:"build_on_cave_and_shipping_zones"`
	EverythingEnabled           bool `json:"everything_enabled"`
	EverythingDisabled          bool `json:"everything_disabled"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	p := s.toggles
	writeJSON(w, http.StatusOK, configBody{
		BuildOnAllTerrainFeatures:   p.BuildOnAllTerrainFeatures,
		BuildOnOtherBuildings:       p.BuildOnOtherBuildings,
		BuildOnWater:                p.BuildOnWater,
		BuildOnImpassableTiles:      p.BuildOnImpassableTiles,
		BuildOnNoFurnitureTiles:     p.BuildOnNoFurnitureTiles,
		BuildOnCaveAndShippingZones: p.BuildOnCaveAndShippingZones,
		EverythingEnabled:           p.EverythingEnabled(),
		EverythingDisabled:          p.EverythingDisabled(),
	})
}

type checkBody struct {
	MapID     int16  `json:"map_id"`
	X         int32  `json:"x"`
	Y         int32  `json:"y"`
	Verdict   string `json:"verdict"`
	Buildable bool   `json:"buildable"`
}

// handleCheck dry-runs the placement decision for one tile.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mapID, err1 := strconv.ParseInt(q.Get("map"), 10, 16)
	x, err2 := strconv.ParseInt(q.Get("x"), 10, 32)
	y, err3 := strconv.ParseInt(q.Get("y"), 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "map, x, y query params required")
		return
	}

	loc, ok := s.table.Location(int16(mapID), s.zones)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown map")
		return
	}

	tile := rules.Tile{X: int32(x), Y: int32(y)}
	writeJSON(w, http.StatusOK, checkBody{
		MapID:     int16(mapID),
		X:         tile.X,
		Y:         tile.Y,
		Verdict:   s.eval.Evaluate(loc, tile).String(),
		Buildable: s.check.CanBuild(loc, tile),
	})
}

type zoneBody struct {
	ID    int32  `json:"id,omitempty"`
	MapID int16  `json:"map_id"`
	Name  string `json:"name"`
	X1    int32  `json:"x1"`
	Y1    int32  `json:"y1"`
	X2    int32  `json:"x2"`
	Y2    int32  `json:"y2"`
}

func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := s.zones.All()
	out := make([]zoneBody, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneBody{
			ID: z.ID, MapID: z.MapID, Name: z.Name,
			X1: z.X1, Y1: z.Y1, X2: z.X2, Y2: z.Y2,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddZone(w http.ResponseWriter, r *http.Request) {
	var body zoneBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad zone body")
		return
	}

	// Normalize corner order before anything persists it; the index only
	// normalizes what it loads.
	if body.X1 > body.X2 {
		body.X1, body.X2 = body.X2, body.X1
	}
	if body.Y1 > body.Y2 {
		body.Y1, body.Y2 = body.Y2, body.Y1
	}
	if s.table.GetInfo(body.MapID) == nil {
		writeError(w, http.StatusBadRequest, "unknown map")
		return
	}
	if !s.table.IsInMap(body.MapID, body.X1, body.Y1) || !s.table.IsInMap(body.MapID, body.X2, body.Y2) {
		writeError(w, http.StatusBadRequest, "zone outside map bounds")
		return
	}

	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no zone database configured")
		return
	}

	id, err := s.repo.Insert(r.Context(), persist.ZoneRow{
		MapID: body.MapID, Name: body.Name,
		X1: body.X1, Y1: body.Y1, X2: body.X2, Y2: body.Y2,
	})
	if err != nil {
		s.log.Error("insert zone failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "insert failed")
		return
	}
	if err := s.reloadZones(r); err != nil {
		writeError(w, http.StatusInternalServerError, "zone reload failed")
		return
	}
	body.ID = id
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "no zone database configured")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad zone id")
		return
	}

	found, err := s.repo.Delete(r.Context(), int32(id))
	if err != nil {
		s.log.Error("delete zone failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no such zone")
		return
	}
	if err := s.reloadZones(r); err != nil {
		writeError(w, http.StatusInternalServerError, "zone reload failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reloadZones rebuilds the live index from the table after a mutation.
func (s *Server) reloadZones(r *http.Request) error {
	zoneRows, err := s.repo.LoadAll(r.Context())
	if err != nil {
		s.log.Error("reload zones failed", zap.Error(err))
		return err
	}
	s.zones.Replace(ZonesFromRows(zoneRows))
	return nil
}

// ZonesFromRows converts repo rows into index zones.
func ZonesFromRows(zoneRows []persist.ZoneRow) []world.Zone {
	zones := make([]world.Zone, 0, len(zoneRows))
	for _, row := range zoneRows {
		zones = append(zones, world.Zone{
			ID: row.ZoneID, MapID: row.MapID, Name: row.Name,
			X1: row.X1, Y1: row.Y1, X2: row.X2, Y2: row.Y2,
		})
	}
	return zones
}
