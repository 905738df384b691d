// zonectl manages operator no-build zones in PostgreSQL.
//
// Usage:
//
//	zonectl -config config.toml migrate
//	zonectl -config config.toml list
//	zonectl -config config.toml add -map 1 -name docks -x1 4 -y1 4 -x2 9 -y2 7
//	zonectl -config config.toml rm 3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/freebuild/server/internal/config"
	"github.com/freebuild/server/internal/persist"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		fmt.Fprintln(os.Stderr, "no database dsn configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := zap.NewNop()
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error connecting: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := persist.NewZoneRepo(db)

	switch args[0] {
	case "migrate":
		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			fmt.Fprintf(os.Stderr, "error migrating: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migrations applied")

	case "list":
		zones, err := repo.LoadAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error listing zones: %v\n", err)
			os.Exit(1)
		}
		if len(zones) == 0 {
			fmt.Println("no zones designated")
			return
		}
		for _, z := range zones {
			fmt.Printf("%4d  map=%d  (%d,%d)-(%d,%d)  %s\n",
				z.ZoneID, z.MapID, z.X1, z.Y1, z.X2, z.Y2, z.Name)
		}

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		mapID := fs.Int("map", 1, "map id")
		name := fs.String("name", "", "zone name")
		x1 := fs.Int("x1", 0, "left")
		y1 := fs.Int("y1", 0, "top")
		x2 := fs.Int("x2", 0, "right")
		y2 := fs.Int("y2", 0, "bottom")
		_ = fs.Parse(args[1:])

		id, err := repo.Insert(ctx, persist.ZoneRow{
			MapID: int16(*mapID), Name: *name,
			X1: int32(*x1), Y1: int32(*y1), X2: int32(*x2), Y2: int32(*y2),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error adding zone: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("zone %d added\n", id)

	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "rm requires a zone id")
			os.Exit(2)
		}
		id, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad zone id %q\n", args[1])
			os.Exit(2)
		}
		found, err := repo.Delete(ctx, int32(id))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error removing zone: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "no zone %d\n", id)
			os.Exit(1)
		}
		fmt.Printf("zone %d removed\n", id)

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: zonectl -config <file> migrate|list|add|rm ...")
}
