// Package api exposes the operator HTTP surface: read the active toggles
// and zones, dry-run tile checks, and mutate no-build zones.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freebuild/server/internal/config"
	"github.com/freebuild/server/internal/persist"
	"github.com/freebuild/server/internal/placement"
	"github.com/freebuild/server/internal/rules"
	"github.com/freebuild/server/internal/world"
)

// Server holds the wiring for the admin API. The zone repo may be nil in
// DB-less deployments; mutating endpoints then return 503.
type Server struct {
	cfg     config.APIConfig
	toggles config.Placement
	table   *world.Table
	zones   *world.ZoneIndex
	repo    *persist.ZoneRepo
	eval    *rules.Evaluator
	check   *placement.Checker
	log     *zap.Logger
	httpSrv *http.Server
}

func NewServer(
	cfg config.APIConfig,
	toggles config.Placement,
	table *world.Table,
	zones *world.ZoneIndex,
	repo *persist.ZoneRepo,
	eval *rules.Evaluator,
	check *placement.Checker,
	log *zap.Logger,
) *Server {
	s := &Server{
		cfg:     cfg,
		toggles: toggles,
		table:   table,
		zones:   zones,
		repo:    repo,
		eval:    eval,
		check:   check,
		log:     log,
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler builds the route table. Split out for tests.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/v1/check", s.handleCheck).Methods(http.MethodGet)
	r.HandleFunc("/v1/zones", s.handleListZones).Methods(http.MethodGet)
	r.HandleFunc("/v1/zones", s.requireAdmin(s.handleAddZone)).Methods(http.MethodPost)
	r.HandleFunc("/v1/zones/{id:[0-9]+}", s.requireAdmin(s.handleDeleteZone)).Methods(http.MethodDelete)
	return r
}

// Start serves until Shutdown. Runs on its own goroutine at boot.
func (s *Server) Start() error {
	s.log.Info("admin api listening", zap.String("addr", s.cfg.BindAddress))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// requireAdmin checks the bearer token against the configured bcrypt hash.
// No hash configured means mutations are disabled outright.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminTokenHash == "" {
			writeError(w, http.StatusServiceUnavailable, "admin token not configured")
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminTokenHash), []byte(token)) != nil {
			writeError(w, http.StatusUnauthorized, "bad admin token")
			return
		}
		next(w, r)
	}
}
