package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/auth"
	"github.com/example/paper-trader/internal/cache"
	"github.com/example/paper-trader/internal/config"
	"github.com/example/paper-trader/internal/feed"
	httpserver "github.com/example/paper-trader/internal/http"
	"github.com/example/paper-trader/internal/market"
	"github.com/example/paper-trader/internal/realtime"
	"github.com/example/paper-trader/internal/store"
	"github.com/example/paper-trader/internal/trading"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}

	marketSvc := market.New(fileStore, logger)
	if _, err := marketSvc.Seed(); err != nil {
		logger.Fatal("seed assets", zap.Error(err))
	}

	tradingSvc := trading.New(fileStore, logger)

	claims, err := cache.New(1<<24 /* ~16MB */, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("claims cache", zap.Error(err))
	}
	authSvc := auth.New(fileStore, tradingSvc, claims, logger, cfg.JWTSecret, cfg.TokenTTL, cfg.StartingCash)

	hub := realtime.NewHub()
	s := httpserver.NewServer(authSvc, tradingSvc, marketSvc, hub, logger, cfg.CORSOrigin)

	if cfg.KafkaBrokers != "" {
		brokers := splitBrokers(cfg.KafkaBrokers)
		cons := feed.NewConsumer(brokers, cfg.KafkaTopic, cfg.KafkaGroupID, marketSvc, hub, logger)
		go func() {
			if err := cons.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("feed consumer", zap.Error(err))
			}
		}()
	}

	if cfg.TickInterval > 0 {
		go runTickLoop(ctx, cfg.TickInterval, marketSvc, hub, logger)
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}

// runTickLoop perturbs prices on a fixed interval and broadcasts the result.
func runTickLoop(ctx context.Context, interval time.Duration, m *market.Service, hub *realtime.Hub, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := m.Tick()
			if err != nil {
				logger.Error("tick", zap.Error(err))
				continue
			}
			logger.Debug("market tick", zap.Int("updated", count))
			if assets, err := m.Assets(); err == nil {
				hub.BroadcastJSON(map[string]any{"type": "assets", "assets": assets})
			}
		}
	}
}

func splitBrokers(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
