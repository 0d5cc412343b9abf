package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/api"
	"github.com/bcnelson/pkg-groups/internal/auth"
	"github.com/bcnelson/pkg-groups/internal/config"
	"github.com/bcnelson/pkg-groups/internal/hujsonfile"
	"github.com/bcnelson/pkg-groups/internal/logging"
	"github.com/bcnelson/pkg-groups/internal/metrics"
	"github.com/bcnelson/pkg-groups/internal/model"
	"github.com/bcnelson/pkg-groups/internal/registry"
	"github.com/bcnelson/pkg-groups/internal/service"
	"github.com/bcnelson/pkg-groups/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := loadStore(cfg.Store.GroupsFile)
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}
	if cfg.Store.GroupsFile != "" {
		logger.Info("loaded groups", zap.String("file", cfg.Store.GroupsFile))
	}

	// Initialize the extension registry (file shim or an empty in-memory one)
	var reg interface {
		registry.Registry
		registry.Applier
	}
	var shim *registry.FileShim
	if cfg.Registry.File != "" {
		shim, err = registry.NewFileShim(ctx, cfg.Registry.File, logger)
		if err != nil {
			return fmt.Errorf("loading registry: %w", err)
		}
		reg = shim
	} else {
		logger.Warn("REGISTRY_FILE not set, differences are computed against an empty registry")
		reg = registry.NewStatic(nil, nil, nil)
	}

	var verifier auth.TokenVerifier
	if cfg.OIDC.Enabled {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID, cfg.OIDC.GetAllowedDomains())
		if err != nil {
			return err
		}
		verifier = v
		logger.Info("OIDC bearer tokens enabled", zap.String("issuer", cfg.OIDC.IssuerURL))
	}

	m := metrics.New()
	svc := service.New(store, service.Options{
		Registry:       reg,
		Applier:        reg,
		Logger:         logger,
		Metrics:        m,
		EventBuffer:    cfg.Store.EventBuffer,
		IncludeBundled: cfg.Registry.IncludeBundled,
		AutoApply:      cfg.Apply.AutoApply,
		ApplyDebounce:  cfg.Apply.Debounce,
	})
	defer svc.Close()

	router := api.NewRouter(api.Options{
		Service:  svc,
		Metrics:  m,
		Logger:   logger,
		APIKeys:  auth.NewKeySet(cfg.Auth.Keys()),
		Verifier: verifier,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Reload the registry file on SIGHUP
	if shim != nil {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for {
				select {
				case <-hup:
					if err := shim.Reload(ctx); err != nil {
						logger.Error("registry reload failed", zap.Error(err))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting pkg-groups", zap.String("addr", cfg.Server.Addr()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Close event streams before draining HTTP connections.
	svc.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadStore reads the initial record. An empty path yields an empty store.
func loadStore(path string) (*model.Store, error) {
	if path == "" {
		return model.New(), nil
	}
	data, err := hujsonfile.Read(path)
	if err != nil {
		return nil, err
	}
	store, err := model.FromJSON(data)
	if err != nil {
		return nil, err
	}
	if errs := validation.ValidateRecord(store.Serialize()); errs.HasErrors() {
		return nil, errs
	}
	return store, nil
}
