package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"entryblog/internal/app"
	"entryblog/internal/config"
	apphttp "entryblog/internal/http"
	"entryblog/internal/logging"
	"entryblog/internal/service"
	"entryblog/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("development", "info").Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log.Env, cfg.Log.Level)

	secret := strings.TrimSpace(cfg.Auth.SessionSecret)
	if secret == "" {
		if !cfg.Testing() {
			logger.Fatalf("auth session secret is required")
		}
		secret = uuid.NewString()
		logger.Warn("testing profile: using a random session secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.Close()

	entryService := service.NewEntryService(store.Entries)
	userService := service.NewUserService(store.Users, cfg.Auth.BcryptCost)
	sessions := session.NewManager(secret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)

	if cfg.Log.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(entryService, userService, sessions, logger, cfg.Auth.CookieSecure)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (profile %s)", cfg.Server.Addr, cfg.Profile)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
