package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pribylovaa/sabha/internal/cache"
	"github.com/pribylovaa/sabha/internal/classifier"
	"github.com/pribylovaa/sabha/internal/config"
	sabhahttp "github.com/pribylovaa/sabha/internal/http"
	"github.com/pribylovaa/sabha/internal/insights"
	"github.com/pribylovaa/sabha/internal/service"
	"github.com/pribylovaa/sabha/internal/storage"
	"github.com/pribylovaa/sabha/internal/storage/minio"
	"github.com/pribylovaa/sabha/internal/storage/postgres"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting sabha", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := postgres.New(dbCtx, cfg.DB.URL)
	dbCancel()
	if err != nil {
		log.Error("db_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("db_connected")

	clf, err := classifier.New(rootCtx, cfg.Classifier)
	if err != nil {
		log.Error("classifier_init_failed", slog.String("err", err.Error()))
		store.Close()
		os.Exit(1)
	}
	log.Info("classifier_initialized", slog.String("provider", cfg.Classifier.Provider))

	svc := service.New(store, insights.New(clf, cfg.Classifier.Timeout), *cfg)

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(rootCtx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			// Кэш необязателен: без него refresh-токены читаются из Postgres.
			log.Warn("redis_connect_failed", slog.String("err", err.Error()))
		} else {
			defer func() {
				if cerr := rc.Close(); cerr != nil {
					log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
				}
			}()
			svc.SetRefreshCache(rc)
			log.Info("redis_connected")
		}
	}

	if cfg.AvatarsEnabled() {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		avatars, err := minio.New(s3Ctx, cfg.S3, cfg.Avatar)
		s3Cancel()
		if err != nil {
			log.Error("minio_connect_failed", slog.String("err", err.Error()))
			store.Close()
			os.Exit(1)
		}
		svc.SetAvatars(avatars)
		log.Info("minio_connected")
	}

	startRefreshJanitor(rootCtx, store, log, 30*time.Minute)

	handler := sabhahttp.NewRouter(svc, sabhahttp.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ready:          store.Ping,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		store.Close()
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// startRefreshJanitor запускает фоновую задачу, которая периодически удаляет
// просроченные refresh-токены с помощью storage.DeleteExpiredTokens.
func startRefreshJanitor(ctx context.Context, st storage.RefreshTokenStorage, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := st.DeleteExpiredTokens(ctx, time.Now().UTC())
				if err != nil {
					log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					log.Info("refresh_janitor_deleted", slog.Int64("count", n))
				}
			}
		}
	}()
}
