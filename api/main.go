package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/storefront/internal/apiclient"
	"github.com/rogerio-castellano/storefront/internal/config"
	"github.com/rogerio-castellano/storefront/internal/http/handlers"
	mw "github.com/rogerio-castellano/storefront/internal/http/middleware"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/http/router"
	"github.com/rogerio-castellano/storefront/internal/preloader"
	"github.com/rogerio-castellano/storefront/internal/push"
	"github.com/rogerio-castellano/storefront/internal/storage"
	"github.com/rogerio-castellano/storefront/internal/storefront"
	"github.com/rogerio-castellano/storefront/internal/views"
)

// @title Storefront
// @version 1.0
// @description Server-driven storefront: pages, per-tab event streams and the login hand-off.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("could not load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("could not open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	render, err := views.New(cfg.CurrencySymbol, cfg.LoginURL)
	if err != nil {
		slog.Error("could not load templates", "error", err)
		os.Exit(1)
	}

	client := apiclient.New(apiclient.Options{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}, store)
	hub := push.NewHub()
	svc := storefront.NewService(client, store, hub, render, clockwork.NewRealClock(), storefront.Config{
		LoginURL:      cfg.LoginURL,
		ToastDuration: cfg.ToastDuration,
		Reveal: storefront.Reveal{
			Hero:       cfg.Reveal.Hero,
			Categories: cfg.Reveal.Categories,
			Newsletter: cfg.Reveal.Newsletter,
			Loader:     cfg.Reveal.Loader,
			LoaderFade: cfg.Reveal.LoaderFade,
		},
		Preloader: preloader.Config{
			Settle:      cfg.Preloader.Settle,
			Ceiling:     cfg.Preloader.Ceiling,
			FadeOut:     cfg.Preloader.FadeOut,
			DetachDelay: cfg.Preloader.DetachDelay,
		},
	})
	client.OnUnauthorized(svc.HandleUnauthorized)

	handlers.SetService(svc)
	handlers.SetStorage(store)
	handlers.SetHub(hub)
	handlers.SetBreaker(client)

	listener := push.NewListener(client, hub, push.Config{
		ReconnectInitial: cfg.Push.ReconnectInitial,
		Multiplier:       cfg.Push.Multiplier,
		MaxInterval:      cfg.Push.MaxInterval,
		MaxRetries:       cfg.Push.MaxRetries,
	})
	go func() {
		if err := listener.Run(ctx); err != nil {
			slog.Error("event stream listener stopped", "error", err)
		}
	}()
	go func() {
		if err := svc.WatchStorage(ctx); err != nil {
			slog.Error("storage watcher stopped", "error", err)
		}
	}()

	limiter := rl.New(cfg.CartRateLimit, cfg.CartRateBurst, nil)
	go limiter.StartVisitorCleanupLoop(ctx)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.NewRouter(router.Options{
			Sessions:       mw.NewSessionStore(cfg.SessionKey, cfg.CookieSecure),
			CSRFEnabled:    cfg.CSRFEnabled,
			CSRFKey:        cfg.CSRFKey,
			CookieSecure:   cfg.CookieSecure,
			TrustProxy:     cfg.TrustProxy,
			TrustedOrigins: []string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port},
			CartLimiter:    limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server running", "port", cfg.Port, "api", cfg.APIURL, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"storefront": func(ctx context.Context) error {
				slog.Info("shutting down")
				err := server.Shutdown(ctx)
				cancel()
				svc.Close()
				return errors.Join(err, store.Close())
			},
		},
	)

	exitCode := <-wait
	slog.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		return storage.NewRedisStorage(rdb, cfg.TTL), nil
	case "postgres":
		db, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgresStorage(db, cfg.DatabaseURL)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}
