// buildcheck evaluates tile buildability offline against a world snapshot,
// without a database or running service.
//
// Usage:
//
//	go run ./cmd/buildcheck -config config.toml -map 1 -x 5 -y 3
//	go run ./cmd/buildcheck -config config.toml -map 1 -sweep
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/freebuild/server/internal/config"
	"github.com/freebuild/server/internal/placement"
	"github.com/freebuild/server/internal/rules"
	"github.com/freebuild/server/internal/scripting"
	"github.com/freebuild/server/internal/world"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "path to config file")
	mapID := flag.Int("map", 1, "map id")
	x := flag.Int("x", 0, "tile x")
	y := flag.Int("y", 0, "tile y")
	sweep := flag.Bool("sweep", false, "print a buildability grid for the whole map")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	log := zap.NewNop()

	table, err := world.Load(cfg.World.MapList, cfg.World.TileDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading world: %v\n", err)
		os.Exit(1)
	}

	var extra []rules.ExtraRule
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.RulesDir, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading rule scripts: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		extra = append(extra, engine.Rule())
	}

	eval := rules.NewEvaluator(cfg.Placement, log, extra...)
	checker := placement.NewChecker(eval, placement.Baseline, log)

	loc, ok := table.Location(int16(*mapID), world.NewZoneIndex(nil))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown map %d\n", *mapID)
		os.Exit(1)
	}

	if *sweep {
		printSweep(table, loc, checker, int16(*mapID))
		return
	}

	tile := rules.Tile{X: int32(*x), Y: int32(*y)}
	verdict := eval.Evaluate(loc, tile)
	fmt.Printf("map=%d tile=(%d,%d) verdict=%s buildable=%v\n",
		*mapID, tile.X, tile.Y, verdict, checker.CanBuild(loc, tile))
}

// printSweep renders the map as a grid: '.' buildable, '#' not.
func printSweep(table *world.Table, loc *world.Location, checker *placement.Checker, mapID int16) {
	info := table.GetInfo(mapID)
	buildable := 0
	total := 0
	for ty := info.StartY; ty <= info.EndY; ty++ {
		for tx := info.StartX; tx <= info.EndX; tx++ {
			total++
			if checker.CanBuild(loc, rules.Tile{X: tx, Y: ty}) {
				buildable++
				fmt.Print(".")
			} else {
				fmt.Print("#")
			}
		}
		fmt.Println()
	}
	fmt.Printf("\n%s (map %d): %d/%d tiles buildable\n", info.Name, mapID, buildable, total)
}
