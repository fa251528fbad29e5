// kubedeck-backend serves the dashboard API: workload list views, the
// configuration update pipeline, auth, audit logs and the live update
// feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/kubedeck/kubedeck-backend/internal/api/middleware"
	"github.com/kubedeck/kubedeck-backend/internal/api/rest"
	"github.com/kubedeck/kubedeck-backend/internal/api/websocket"
	"github.com/kubedeck/kubedeck-backend/internal/audit"
	"github.com/kubedeck/kubedeck-backend/internal/auth"
	"github.com/kubedeck/kubedeck-backend/internal/config"
	"github.com/kubedeck/kubedeck-backend/internal/k8s"
	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/internal/pkg/logger"
	"github.com/kubedeck/kubedeck-backend/internal/repository"
	"github.com/kubedeck/kubedeck-backend/internal/service"
	"github.com/kubedeck/kubedeck-backend/migrations"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kubedeck-backend: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.StdLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("KUBEDECK_JWT_SECRET must be set")
	}

	repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if err := ensureAdminUser(repo, log); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}

	cluster, err := k8s.NewClient(cfg.KubeconfigPath)
	if err != nil {
		return fmt.Errorf("connect to cluster: %w", err)
	}
	cluster.SetTimeout(time.Duration(cfg.K8sTimeoutSec) * time.Second)
	if cfg.K8sRateLimitPerSec > 0 {
		cluster.SetLimiter(rate.NewLimiter(rate.Limit(cfg.K8sRateLimitPerSec), max(cfg.K8sRateLimitBurst, 1)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(ctx, log)
	go hub.Run()
	defer hub.Stop()

	recorder := audit.NewRecorder(repo, hub, log)
	workloads := service.NewWorkloadService(cluster, cfg.CacheSize, time.Duration(cfg.CacheTTLSec)*time.Second, recorder, hub, log)
	configs := service.NewConfigService(cluster, repo, recorder, hub, workloads, log)

	handler := rest.NewHandler(configs, workloads, repo, repo, cfg.JWTSecret, log)
	wsHandler := websocket.NewHandler(ctx, hub, log)

	router := mux.NewRouter()
	router.Use(middleware.Metrics)
	rest.SetupRoutes(router, handler)
	router.HandleFunc("/ws", wsHandler.ServeWS)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	chain := middleware.RequestID(
		middleware.StructuredLog(
			middleware.Recovery(
				middleware.Auth(cfg.JWTSecret)(
					middleware.BodyLimit(int64(cfg.ApplyMaxBodyBytes))(router)))))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      corsHandler,
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ensureAdminUser creates the initial admin account on first start.
// The password comes from KUBEDECK_ADMIN_PASSWORD; without it, no
// account is created and registration is the only way in.
func ensureAdminUser(repo *repository.SQLiteRepository, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := repo.GetUserByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	password := os.Getenv("KUBEDECK_ADMIN_PASSWORD")
	if password == "" {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return err
	}
	log.Info("created initial admin user")
	return nil
}
