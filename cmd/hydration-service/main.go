package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diwise/entity-hydration/internal/pkg/application/entities"
	"github.com/diwise/entity-hydration/internal/pkg/application/events"
	"github.com/diwise/entity-hydration/internal/pkg/infrastructure/router"
	"github.com/diwise/entity-hydration/internal/pkg/infrastructure/storage"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api"
	"github.com/diwise/entity-hydration/internal/pkg/presentation/api/auth"
	"github.com/diwise/entity-hydration/pkg/validation"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const serviceName string = "entity-hydration"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion, "json")
	defer cleanup()

	flags := parseExternalConfig(ctx, defaultFlags())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, log, flags)
	if err != nil {
		log.Error("service failed", "err", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, flags FlagMap) error {
	cfg, err := loadConfiguration(flags[configPath])
	if err != nil {
		return err
	}

	store, err := newStorage(ctx, flags[storageType])
	if err != nil {
		return err
	}
	defer store.Close()

	validator, err := newValidator(ctx, flags[validationPath])
	if err != nil {
		return err
	}

	options := []entities.Option{}

	if flags[notifierEndpoint] != "" {
		notifier, err := events.NewNotifier(ctx, flags[notifierEndpoint])
		if err != nil {
			return err
		}

		err = notifier.Start()
		if err != nil {
			return err
		}
		defer notifier.Stop()

		options = append(options, entities.WithNotifier(notifier))
	}

	app, err := entities.New(ctx, *cfg, store, validator, options...)
	if err != nil {
		return fmt.Errorf("failed to create entity application: %w", err)
	}

	policies, err := openOrDefault(flags[policiesPath], auth.AllowAll)
	if err != nil {
		return fmt.Errorf("unable to open opa policy file: %w", err)
	}
	defer policies.Close()

	r := router.New(serviceName)

	err = api.RegisterHandlers(ctx, r, policies, app)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              flags[listenAddress] + ":" + flags[servicePort],
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	l, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for connections: %w", err)
	}

	log.Info("starting to listen for connections", "addr", srv.Addr)

	return serve(ctx, log, srv, l)
}

const shutdownTimeout time.Duration = 10 * time.Second

// serve blocks until ctx is done and every in flight request has completed, so
// that deferred cleanup never runs underneath active handlers
func serve(ctx context.Context, log *slog.Logger, srv *http.Server, l net.Listener) error {
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("shutting down")

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			log.Error("failed to shut down gracefully", "err", err.Error())
		}
	}()

	err := srv.Serve(l)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve connections: %w", err)
	}

	<-done

	return nil
}

func loadConfiguration(path string) (*entities.Config, error) {
	if path == "" {
		cfg := entities.DefaultConfiguration()
		return &cfg, nil
	}

	configFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer configFile.Close()

	return entities.LoadConfiguration(configFile)
}

func newStorage(ctx context.Context, storageType string) (storage.Storage, error) {
	switch storageType {
	case inMemoryStorage:
		return storage.NewInMemory(), nil
	case postgresStorage:
		s, err := storage.NewPostgres(ctx, storage.LoadConfiguration(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage type %q", storageType)
}

func newValidator(ctx context.Context, path string) (validation.Validator, error) {
	policies, err := openOrDefault(path, validation.DefaultPolicies)
	if err != nil {
		return nil, fmt.Errorf("unable to open validation policies: %w", err)
	}
	defer policies.Close()

	return validation.NewPolicyValidator(ctx, policies)
}

func openOrDefault(path string, fallback func() io.Reader) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(fallback()), nil
	}

	return os.Open(path)
}
