package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/board-service/config"
	"github.com/cwrk-planet/board-service/internal/bus"
	"github.com/cwrk-planet/board-service/internal/relay"
	"github.com/cwrk-planet/board-service/internal/service"
	"github.com/cwrk-planet/board-service/internal/storage"
	grpcx "github.com/cwrk-planet/board-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/board-service/internal/transport/http"
	"github.com/cwrk-planet/board-service/internal/transport/ws"
	"github.com/cwrk-planet/board-service/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting board-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- store ---
	repo, err := storage.Open(ctx, cfg.Store.URI)
	if err != nil {
		// keep serving; every store call fails until restart
		slog.Error("store unavailable", "err", err)
		repo = storage.Unavailable(err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Warn("store close failed", "err", err)
		}
	}()

	// --- relay ---
	board := service.NewBoardService(repo)
	registry := relay.NewRegistry()
	relayOpts := []relay.Option{relay.WithOpTimeout(cfg.Store.OpTimeout)}

	errCh := make(chan error, 3)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		b := bus.NewRedis(rdb, cfg.Redis.Channel, registry)
		relayOpts = append(relayOpts, relay.WithBroadcaster(b))
		go func() {
			slog.Info("bus subscribe", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
			if err := b.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	rl := relay.New(board, registry, relayOpts...)
	wsServer := ws.NewServer(rl, ws.WithPingEvery(cfg.WS.PingEvery))

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(repo, cfg.HTTP.StaticDir),
		WS:             wsServer.HandleWS,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	httpSrv := httpx.NewServer(httpx.ServerConfig{
		Addr:              cfg.HTTP.Addr(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, router)

	httpDone := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr(), "static", cfg.HTTP.StaticDir)
		httpDone <- httpSrv.Run(ctx)
	}()

	// --- gRPC health ---
	if cfg.GRPC.Addr != "" {
		grpcServer, health := grpcx.NewServer(repo, cfg.GRPC.PingEvery)
		go health.Watch(ctx)
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				errCh <- err
				return
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		defer grpcx.Stop(grpcServer, 5*time.Second)
	}

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
		stop()
	case err := <-httpDone:
		slog.Error("http server stopped", "err", err)
		stop()
		httpDone = nil
	}

	// hijacked websocket connections are not tracked by http.Server
	rl.Close()
	if httpDone != nil {
		if err := <-httpDone; err != nil {
			slog.Warn("http shutdown", "err", err)
		}
	}
	slog.Info("stopped")
}
