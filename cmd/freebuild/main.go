// freebuild runs the building-placement override service: it loads the
// toggle config and world data, pulls operator no-build zones from
// PostgreSQL, loads Lua rule scripts, and serves the admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/freebuild/server/internal/api"
	"github.com/freebuild/server/internal/config"
	"github.com/freebuild/server/internal/persist"
	"github.com/freebuild/server/internal/placement"
	"github.com/freebuild/server/internal/rules"
	"github.com/freebuild/server/internal/scripting"
	"github.com/freebuild/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()
	if p := os.Getenv("FREEBUILD_CONFIG"); p != "" && *cfgPath == "config.toml" {
		*cfgPath = p
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// World data
	table, err := world.Load(cfg.World.MapList, cfg.World.TileDir)
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}
	log.Info("world loaded", zap.Int("maps", table.Count()))

	// Operator zones from PostgreSQL. DSN empty = run without persistence.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		repo  *persist.ZoneRepo
		zones = world.NewZoneIndex(nil)
	)
	if cfg.Database.DSN != "" {
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}

		repo = persist.NewZoneRepo(db)
		zoneRows, err := repo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load zones: %w", err)
		}
		zones.Replace(api.ZonesFromRows(zoneRows))
		log.Info("no-build zones loaded", zap.Int("zones", len(zoneRows)))
	} else {
		log.Warn("no database configured, zone designations are disabled")
	}

	// Lua extension rules
	var extra []rules.ExtraRule
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.RulesDir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		extra = append(extra, engine.Rule())
		log.Info("lua rules loaded", zap.String("dir", cfg.Scripting.RulesDir))
	}

	eval := rules.NewEvaluator(cfg.Placement, log, extra...)
	checker := placement.NewChecker(eval, placement.Baseline, log)

	srv := api.NewServer(cfg.API, cfg.Placement, table, zones, repo, eval, checker, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case sig := <-shutdownCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
