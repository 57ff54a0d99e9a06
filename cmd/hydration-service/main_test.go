package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diwise/entity-hydration/pkg/models"
	"github.com/matryer/is"
)

func TestDefaultConfigurationExposesAllKinds(t *testing.T) {
	is := is.New(t)

	cfg, err := loadConfiguration("")
	is.NoErr(err)
	is.Equal(len(cfg.Kinds), len(models.Kinds()))
}

func TestLoadConfigurationFromFile(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	is.NoErr(os.WriteFile(path, []byte("kinds:\n  - name: devices\n    validate: true\n"), 0644))

	cfg, err := loadConfiguration(path)
	is.NoErr(err)
	is.Equal(len(cfg.Kinds), 1)
	is.True(cfg.Kinds[0].Validate)
}

func TestMissingConfigurationFile(t *testing.T) {
	is := is.New(t)

	_, err := loadConfiguration(filepath.Join(t.TempDir(), "nope.yaml"))
	is.True(err != nil)
}

func TestUnknownStorageType(t *testing.T) {
	is := is.New(t)

	_, err := newStorage(context.Background(), "floppy")
	is.True(err != nil)

	s, err := newStorage(context.Background(), inMemoryStorage)
	is.NoErr(err)
	s.Close()
}

func TestDefaultValidator(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	v, err := newValidator(ctx, "")
	is.NoErr(err)

	d, err := models.NewDevice(map[string]any{})
	is.NoErr(err)

	violations, err := v.Validate(ctx, models.DevicesKind, d)
	is.NoErr(err)
	is.Equal(len(violations), 1) // a device without an id should be rejected
}

func TestServeWaitsForInFlightRequests(t *testing.T) {
	is := is.New(t)

	started := make(chan struct{})
	release := make(chan struct{})

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
			w.WriteHeader(http.StatusNoContent)
		}),
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), srv, l)
	}()

	responses := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + l.Addr().String() + "/")
		if err != nil {
			responses <- 0
			return
		}
		resp.Body.Close()
		responses <- resp.StatusCode
	}()

	<-started
	cancel()

	select {
	case <-served:
		t.Fatal("serve returned while a request was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	is.Equal(<-responses, http.StatusNoContent) // in flight request should complete
	is.NoErr(<-served)
}
