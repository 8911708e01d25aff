// Package main provides the Spyfall game server binary: a WebSocket
// endpoint over the room session engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spyfall/internal/config"
	"github.com/cory-johannsen/spyfall/internal/game/pack"
	"github.com/cory-johannsen/spyfall/internal/game/random"
	"github.com/cory-johannsen/spyfall/internal/game/room"
	"github.com/cory-johannsen/spyfall/internal/game/session"
	"github.com/cory-johannsen/spyfall/internal/gameserver"
	"github.com/cory-johannsen/spyfall/internal/observability"
	"github.com/cory-johannsen/spyfall/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	packsDir := flag.String("packs-dir", "", "path to location pack YAML files; overrides game.packs_dir")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting spyfall server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Load location packs
	dir := cfg.Game.PacksDir
	if *packsDir != "" {
		dir = *packsDir
	}
	packStart := time.Now()
	packs, err := pack.LoadPacksFromDir(dir)
	if err != nil {
		logger.Fatal("loading location packs", zap.Error(err))
	}
	catalog, err := pack.NewCatalog(packs)
	if err != nil {
		logger.Fatal("building pack catalog", zap.Error(err))
	}
	locations := 0
	for _, p := range packs {
		locations += len(p.Locations)
	}
	logger.Info("location packs loaded",
		zap.Int("packs", catalog.PackCount()),
		zap.Int("locations", locations),
		zap.Duration("elapsed", time.Since(packStart)),
	)

	rng := random.NewCryptoSource()
	registry := room.NewRegistry(catalog, room.Settings{
		MinPlayers:    cfg.Game.MinPlayers,
		MaxPlayers:    cfg.Game.MaxPlayers,
		RoundsLimit:   cfg.Game.RoundsLimit,
		RoundDuration: cfg.Game.RoundDuration,
	}, rng, nil)

	// The session directory's eviction callback needs the dispatcher, and
	// the dispatcher needs the directory; the indirection breaks the cycle.
	var dispatcher *gameserver.Dispatcher
	sessions := session.NewDirectory(cfg.Game.ReconnectGrace, func(playerID, roomCode string) {
		dispatcher.EvictPlayer(playerID, roomCode)
	}, nil)
	dispatcher = gameserver.NewDispatcher(registry, sessions, logger)

	wsServer := gameserver.NewWSServer(dispatcher, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           wsServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	timerTicks := gameserver.NewTickManager(cfg.Game.TimerTick)
	timerTicks.Register("round-timers", dispatcher.CheckRoundTimers)
	sweepTicks := gameserver.NewTickManager(cfg.Game.SweepInterval)
	sweepTicks.Register("idle-rooms", func() {
		dispatcher.SweepInactiveRooms(cfg.Game.RoomIdleTimeout)
	})

	lifecycle := server.NewLifecycle(logger)

	tickCtx, stopTicks := context.WithCancel(ctx)
	lifecycle.Add("ticks", &server.FuncService{
		StartFn: func() error {
			timerTicks.Start(tickCtx)
			sweepTicks.Start(tickCtx)
			<-tickCtx.Done()
			return nil
		},
		StopFn: stopTicks,
	})

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
			}
			logger.Info("websocket endpoint listening",
				zap.String("addr", lis.Addr().String()),
			)
			if err := httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})

	logger.Info("spyfall server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
