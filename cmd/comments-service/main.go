package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-blog-platform/internal/comments/clients/posts"
	"github.com/pribylovaa/go-blog-platform/internal/comments/config"
	"github.com/pribylovaa/go-blog-platform/internal/comments/metrics"
	"github.com/pribylovaa/go-blog-platform/internal/comments/moderation/tracker"
	"github.com/pribylovaa/go-blog-platform/internal/comments/service"
	csmongo "github.com/pribylovaa/go-blog-platform/internal/comments/storage/mongo"
	cshttp "github.com/pribylovaa/go-blog-platform/internal/comments/transport/http"
	"github.com/pribylovaa/go-blog-platform/internal/identity"
	"github.com/pribylovaa/go-blog-platform/pkg/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := log.Setup(cfg.Env)
	slog.SetDefault(lg)
	lg.Info("starting comments-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := csmongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		lg.Error("mongo_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	lg.Info("mongo_connected")

	// Клиент posts-service, опционально с Redis-кэшем существования постов.
	var postsChecker posts.Checker = posts.New(cfg.Posts.BaseURL, &http.Client{Timeout: cfg.Posts.Timeout})
	if cfg.Posts.CacheURL != "" {
		postsChecker, err = posts.NewCached(postsChecker, cfg.Posts.CacheURL, cfg.Posts.CacheTTL)
		if err != nil {
			lg.Error("posts_cache_init_failed", slog.String("err", err.Error()))
			_ = store.Close(context.Background())
			os.Exit(1)
		}
		lg.Info("posts_cache_enabled")
	}

	tr := tracker.New(cfg.Tracker, tracker.WithEvictHook(func(evicted int) {
		metrics.TrackerEvictions.Add(float64(evicted))
	}))
	go tr.Run(rootCtx)

	svc := service.New(store, *cfg, tr, postsChecker)
	lg.Info("service_initialized")

	resolver, err := identity.NewResolver(cfg.Auth.JWTSecret, cfg.Auth.FingerprintSecret)
	if err != nil {
		lg.Error("identity_resolver_init_failed", slog.String("err", err.Error()))
		_ = store.Close(context.Background())
		os.Exit(1)
	}

	// Служебный HTTP: liveness/readiness/metrics.
	var ready int32 // 0 — not ready; 1 — ready
	opsAddr := cfg.Ops.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:              opsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		lg.Info("ops_listen_start", "addr", opsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("ops_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// Публичный REST API.
	apiAddr := cfg.HTTP.Addr()
	apiSrv := &http.Server{
		Addr: apiAddr,
		Handler: cshttp.NewRouter(svc, resolver, cshttp.Options{
			Logger:  lg,
			Timeout: cfg.Timeouts.Service,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		lg.Info("http_listen_start", slog.String("addr", apiAddr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)

	select {
	case <-rootCtx.Done():
		lg.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			lg.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http_force_stop", slog.String("err", err.Error()))
	}
	shutdownCancel()

	_ = opsSrv.Shutdown(context.Background())
	_ = postsChecker.Close()
	_ = store.Close(context.Background())

	lg.Info("service_stopped")
}
