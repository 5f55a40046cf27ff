package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/api"
	"github.com/opsdesk/opsdesk/config"
	"github.com/opsdesk/opsdesk/internal/cron"
	"github.com/opsdesk/opsdesk/internal/jobs"
	"github.com/opsdesk/opsdesk/internal/keyring"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/internal/store"
	"github.com/opsdesk/opsdesk/internal/tracing"
	"github.com/opsdesk/opsdesk/services"
)

// Server wires the HTTP surface to the secret-gated subsystems. Until a
// valid master password arrives on /unlock, only the unlock and health
// endpoints do anything; everything else is guarded.
type Server struct {
	config       *config.Config
	log          logger.Logger
	router       *gin.Engine
	httpServer   *http.Server
	tracerCloser io.Closer

	keys *keyring.Keyring

	mu          sync.RWMutex
	db          *bun.DB
	repos       *repository.Repositories
	services    *services.Services
	cronManager *cron.CronManager
}

func NewServer(cfg *config.Config) (*Server, error) {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		tracerCloser: closer,
		keys:         keyring.New(),
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}

	return s, nil
}

// Unlock validates the secret against the encrypted store. The first
// accepted secret initializes the repositories and services and arms the
// scheduler; later calls with a valid secret are no-ops, and an invalid
// secret surfaces ErrInvalidSecret without arming anything.
func (s *Server) Unlock(ctx context.Context, secret string) error {
	db, err := store.Open(ctx, s.config.AppConfig.DatabasePath, secret)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repos != nil {
		// Already unlocked; the probe connection is surplus.
		db.Close()
		return nil
	}

	repos := repository.InitRepositories(db)
	svcs := services.InitServices(s.config.AppConfig, s.log, repos)

	runner, err := jobs.NewRunner(repos.SchedulerJobRepository, s.log, jobs.RunnerOptions{
		Timeout: time.Duration(s.config.AppConfig.JobTimeoutSeconds) * time.Second,
	})
	if err != nil {
		db.Close()
		return err
	}

	cronManager := cron.NewCronManager(repos.SchedulerJobRepository, runner, s.log,
		time.Duration(s.config.AppConfig.ArmGraceSeconds)*time.Second)

	// The keyring is the one holder of the validated key; the scheduler
	// arms from it, not from the request parameter.
	s.keys.Set(secret)
	held, err := s.keys.Get()
	if err != nil {
		db.Close()
		return err
	}

	s.log.Info("Database unlocked, arming scheduler")
	if err := cronManager.Arm(ctx, held); err != nil {
		// Arming is best-effort; the store itself is open and usable.
		s.log.Errorf("Failed to arm scheduler: %v", err)
	}

	s.db = db
	s.repos = repos
	s.services = svcs
	s.cronManager = cronManager
	return nil
}

// Repositories returns the repository container, or nil while locked.
func (s *Server) Repositories() *repository.Repositories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repos
}

// Services returns the service container, or nil while locked.
func (s *Server) Services() *services.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api.RegisterRoutes(ctx, s.router, s)

	go func() {
		s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("HTTP server error: %v", err)
		}
	}()

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	s.log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	}

	// Disarm before closing the store so no timer fires into a closed db.
	s.mu.Lock()
	if s.cronManager != nil {
		s.cronManager.Stop()
	}
	if s.db != nil {
		s.db.Close()
	}
	s.keys.Clear()
	s.mu.Unlock()

	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}

	s.log.Info("Shutdown complete")
	return nil
}
