// Package server implements the HTTP reference surface for agentauthd:
// it wires an engine.Engine up to the four endpoints in the reference
// interface table and a health check, and owns the process's graceful
// startup/shutdown sequence.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/drivers"
	"github.com/dyshay/agentauth/engine"
	"github.com/dyshay/agentauth/internal/config"
	"github.com/dyshay/agentauth/internal/health"
	"github.com/dyshay/agentauth/pomi"
	"github.com/dyshay/agentauth/store"
	"github.com/dyshay/agentauth/timing"
)

// Server is the agentauthd server.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string

	engine       *engine.Engine
	memStore     *store.MemoryStore
	httpServer   *http.Server
	healthServer *http.Server // Optional separate health server.
	startTime    time.Time
}

// New builds the engine, registers all built-in challenge drivers, and
// constructs the HTTP mux.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}

	s.memStore = store.NewMemoryStore(10 * time.Second)

	builtinDrivers := []agentauth.ChallengeDriver{
		drivers.CryptoNLDriver{},
		drivers.MultiStepDriver{},
		drivers.AmbiguousLogicDriver{},
		drivers.CodeExecutionDriver{},
	}

	eng, err := engine.New(engine.Config{
		Secret:              cfg.Secret,
		Store:               s.memStore,
		Drivers:             builtinDrivers,
		ChallengeTTLSeconds: int64(cfg.ChallengeTTL.Seconds()),
		TokenTTLSeconds:     int64(cfg.TokenTTL.Seconds()),
		MinScore:            cfg.MinScore,
		Timing: timing.Config{
			Enabled:         cfg.TimingEnabled,
			SessionTracking: cfg.SessionTracking,
		},
		PoMI: pomi.Config{
			Enabled:              cfg.PoMIEnabled,
			CanariesPerChallenge: cfg.CanariesPerChallenge,
			ModelFamilies:        cfg.ModelFamilies,
			ConfidenceThreshold:  cfg.ConfidenceThreshold,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}
	s.engine = eng

	driverNames := make([]string, len(builtinDrivers))
	for i, d := range builtinDrivers {
		driverNames[i] = d.Name()
	}

	mux := http.NewServeMux()
	h := &handlers{engine: eng, logger: logger, secret: cfg.Secret, minScore: cfg.MinScore}

	mux.HandleFunc("POST /v1/challenge/init", h.initChallenge)
	mux.HandleFunc("GET /v1/challenge/{id}", h.getChallenge)
	mux.HandleFunc("POST /v1/challenge/{id}/solve", h.solveChallenge)
	mux.HandleFunc("GET /v1/token/verify", h.verifyToken)

	healthHandler := health.NewHandler(version, driverNames, cfg.PoMIEnabled, cfg.TimingEnabled, s.startTime)
	mux.Handle("/healthz", healthHandler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if cfg.HealthPort > 0 && cfg.HealthPort != cfg.Port {
		healthMux := http.NewServeMux()
		healthMux.Handle("/healthz", healthHandler)
		s.healthServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.HealthPort),
			Handler: healthMux,
		}
	}

	logger.Info("agentauthd.started",
		"version", version,
		"port", cfg.Port,
		"drivers", driverNames,
		"pomi_enabled", cfg.PoMIEnabled,
		"timing_enabled", cfg.TimingEnabled,
	)

	return s, nil
}

// Start begins serving HTTP requests. Blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.healthServer != nil {
		go func() {
			s.logger.Info("health server starting", "addr", s.healthServer.Addr)
			if err := s.healthServer.ListenAndServe(); err != http.ErrServerClosed {
				s.logger.Error("health server error", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("agentauthd listening", "addr", s.httpServer.Addr)

		var err error
		if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down agentauthd")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.memStore.Close()
		if s.healthServer != nil {
			s.healthServer.Shutdown(shutdownCtx)
		}
		return s.httpServer.Shutdown(shutdownCtx)

	case err := <-errCh:
		s.memStore.Close()
		return err
	}
}
