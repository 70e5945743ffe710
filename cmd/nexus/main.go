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

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/nexus-registry/nexus/internal/config"
	"github.com/nexus-registry/nexus/internal/ecosystem"
	"github.com/nexus-registry/nexus/internal/esm"
	"github.com/nexus-registry/nexus/internal/handlers"
	"github.com/nexus-registry/nexus/internal/pkgcache"
	"github.com/nexus-registry/nexus/internal/resolver"
	"github.com/nexus-registry/nexus/internal/store"
	"github.com/nexus-registry/nexus/internal/winget"
)

func main() {
	// Self-contained healthcheck for scratch containers (no curl/wget available).
	// Usage: nexus -healthcheck
	if len(os.Args) > 1 && os.Args[1] == "-healthcheck" {
		resp, err := http.Get("http://127.0.0.1:8080/_docs/openapi.json")
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to create store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	if err := initStore(ctx, backend); err != nil {
		slog.Error("failed to initialise store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	cache := pkgcache.New(backend)
	npmResolver := resolver.NewNPM()
	cdnjsResolver := resolver.NewCDNJS()
	resolvers := map[ecosystem.Ecosystem]resolver.Resolver{
		ecosystem.NPM:    npmResolver,
		ecosystem.JSR:    resolver.NewJSR(),
		ecosystem.GitHub: resolver.NewGitHub(),
		ecosystem.CDNJS:  cdnjsResolver,
		ecosystem.WP:     resolver.NewWordPress(),
	}

	githubClient := winget.NewClient(cfg.GitHubToken)
	wg := winget.NewIndex(githubClient, backend, cfg.WinGetOwner, cfg.WinGetRepo, cfg.WinGetBranch)

	bundler := esm.New(cache)

	h := handlers.New(cache, resolvers, cdnjsResolver, wg, bundler, nil)

	h2s := &http2.Server{}
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h2c.NewHandler(h.Router(), h2s),
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ListenAddr, "backend", cfg.StorageBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return store.NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3ForcePathStyle, cfg.S3LifecycleDays)
	case "fs":
		return store.NewFS(cfg.FSRoot), nil
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}
}

// initStore calls the back-end's Init, if it has one; Memory needs none.
func initStore(ctx context.Context, backend store.Store) error {
	switch s := backend.(type) {
	case *store.S3:
		return s.Init(ctx)
	case *store.FS:
		return s.Init()
	default:
		return nil
	}
}
