package persist

import (
	"context"
)

// ZoneRow represents a row from the no_build_zones table.
type ZoneRow struct {
	ZoneID int32
	MapID  int16
	Name   string
	X1     int32
	Y1     int32
	X2     int32
	Y2     int32
}

// ZoneRepo handles all no-build-zone database operations.
type ZoneRepo struct {
	db *DB
}

func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// LoadAll loads every designated zone. Called at startup and after each
// admin mutation to rebuild the in-memory index.
func (r *ZoneRepo) LoadAll(ctx context.Context) ([]ZoneRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT zone_id, map_id, name, x1, y1, x2, y2
		 FROM no_build_zones ORDER BY zone_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []ZoneRow
	for rows.Next() {
		var z ZoneRow
		if err := rows.Scan(&z.ZoneID, &z.MapID, &z.Name, &z.X1, &z.Y1, &z.X2, &z.Y2); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// Insert stores a new zone and returns its assigned id.
func (r *ZoneRepo) Insert(ctx context.Context, z ZoneRow) (int32, error) {
	var id int32
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO no_build_zones (map_id, name, x1, y1, x2, y2)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING zone_id`,
		z.MapID, z.Name, z.X1, z.Y1, z.X2, z.Y2).Scan(&id)
	return id, err
}

// Delete removes a zone by id. Returns false when no row matched.
func (r *ZoneRepo) Delete(ctx context.Context, zoneID int32) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM no_build_zones WHERE zone_id = $1`, zoneID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
