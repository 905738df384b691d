package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Placement Placement       `toml:"placement"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
	Scripting ScriptingConfig `toml:"scripting"`
	World     WorldConfig     `toml:"world"`
	API       APIConfig       `toml:"api"`
}

// Placement holds the override toggles. Every toggle defaults to false,
// which preserves the host's restrictive behavior for that check.
// Immutable after Load.
type Placement struct {
	BuildOnAllTerrainFeatures   bool `toml:"build_on_all_terrain_features"`
	BuildOnOtherBuildings       bool `toml:"build_on_other_buildings"`
	BuildOnWater                bool `toml:"build_on_water"`
	BuildOnImpassableTiles      bool `toml:"build_on_impassable_tiles"`
	BuildOnNoFurnitureTiles     bool `toml:"build_on_no_furniture_tiles"`
	BuildOnCaveAndShippingZones bool `toml:"build_on_cave_and_shipping_zones"`
}

// EverythingEnabled reports that every restriction is overridden — the
// evaluator short-circuits to buildable without touching the host.
func (p Placement) EverythingEnabled() bool {
	return p.BuildOnAllTerrainFeatures &&
		p.BuildOnOtherBuildings &&
		p.BuildOnWater &&
		p.BuildOnImpassableTiles &&
		p.BuildOnNoFurnitureTiles &&
		p.BuildOnCaveAndShippingZones
}

// EverythingDisabled reports a fully stock configuration — the evaluator
// defers every call to the host's baseline rule.
func (p Placement) EverythingDisabled() bool {
	return !p.BuildOnAllTerrainFeatures &&
		!p.BuildOnOtherBuildings &&
		!p.BuildOnWater &&
		!p.BuildOnImpassableTiles &&
		!p.BuildOnNoFurnitureTiles &&
		!p.BuildOnCaveAndShippingZones
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ScriptingConfig struct {
	Enabled  bool   `toml:"enabled"`
	RulesDir string `toml:"rules_dir"`
}

type WorldConfig struct {
	MapList string `toml:"map_list"` // YAML map metadata
	TileDir string `toml:"tile_dir"` // directory of {mapid}.txt tile files
}

type APIConfig struct {
	BindAddress string `toml:"bind_address"`
	// AdminTokenHash is a bcrypt hash of the operator token required for
	// zone mutations. Empty disables mutating endpoints.
	AdminTokenHash string `toml:"admin_token_hash"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		// Placement zero value is the fully restrictive stock behavior.
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scripting: ScriptingConfig{
			Enabled:  false,
			RulesDir: "scripts/rules",
		},
		World: WorldConfig{
			MapList: "data/yaml/world.yaml",
			TileDir: "data/maps",
		},
		API: APIConfig{
			BindAddress: "127.0.0.1:8690",
		},
	}
}
