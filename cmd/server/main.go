package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gogs85/real-time-trading-dashboard/internal/api"
	"github.com/gogs85/real-time-trading-dashboard/internal/auth"
	"github.com/gogs85/real-time-trading-dashboard/internal/cache"
	"github.com/gogs85/real-time-trading-dashboard/internal/gateway"
	"github.com/gogs85/real-time-trading-dashboard/internal/hub"
	"github.com/gogs85/real-time-trading-dashboard/internal/market"
	"github.com/gogs85/real-time-trading-dashboard/pkg/config"
	"github.com/gogs85/real-time-trading-dashboard/pkg/models"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Construction order matters: store, then simulator, then hub, then
	// the tick loop.
	store := market.NewStore(market.DefaultSymbols, cfg.Market.HistoryCapacity, market.RealClock{})
	histCache := cache.New[models.HistoricalData]()
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	rnd := market.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	sim := market.NewSimulator(store, market.SimulatorConfig{
		TickInterval: cfg.Market.TickInterval,
	}, rnd, market.RealClock{}, logger)

	wsHub := hub.New(store, sim, logger)

	handler := api.NewHandler(store, sim, histCache, authSvc, cfg.Cache.TTL, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.Handler(wsHub, authSvc, logger))
	mux.Handle("/", handler.Routes(cfg.Server.CORSOrigin))

	sim.Start(wsHub.Broadcast)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go runCacheJanitor(janitorCtx, histCache, cfg.Cache.CleanupInterval)

	srv := &http.Server{Addr: cfg.Server.Port, Handler: mux}

	go func() {
		logger.Info("Server Started",
			zap.String("port", cfg.Server.Port),
			zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutdown signal received")
	stopJanitor()
	wsHub.Close() // stops the simulator and drops all connections
	srv.Shutdown(context.Background())
	logger.Info("Shutdown Complete")
}

// runCacheJanitor sweeps expired history entries so long-idle keys do not
// accumulate. Reads stay correct without it.
func runCacheJanitor(ctx context.Context, c *cache.Cache[models.HistoricalData], interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
