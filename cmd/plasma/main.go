// ====================================
// File: cmd/plasma/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/plasma-amm/internal/blockchain/solbc"
	"github.com/rovshanmuradov/plasma-amm/internal/config"
	"github.com/rovshanmuradov/plasma-amm/internal/tracker"
	"github.com/rovshanmuradov/plasma-amm/internal/utils/logger"
	"github.com/rovshanmuradov/plasma-amm/internal/utils/metrics"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootLogger, _ := zap.NewDevelopment()
		bootLogger.Error("Failed to load config", zap.String("path", configPath), zap.Error(err))
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	plasmaCfg, err := cfg.PlasmaConfig()
	if err != nil {
		log.LogError("Invalid program configuration", err)
		return err
	}

	collector := metrics.NewCollector()

	client, err := solbc.NewClient(cfg.RPCList, log.WithComponent("solbc"), solbc.Options{
		Commitment: rpc.CommitmentType(cfg.Commitment),
		Timeout:    cfg.Timeout(),
		MaxRetries: uint(cfg.Retries),
	})
	if err != nil {
		log.LogError("Failed to create RPC client", err, zap.Int("nodes", len(cfg.RPCList)))
		return err
	}
	client.SetMetrics(collector)
	defer logNodeStats(log, client)

	tr := tracker.New(client, plasmaCfg, cfg.RefreshEvery(), log.WithComponent("tracker"))
	tr.SetMetrics(collector)
	tr.SetConcurrency(cfg.Workers)

	pools, err := cfg.PoolKeys()
	if err != nil {
		log.LogError("Invalid pool list", err)
		return err
	}

	endLoad := log.TrackPerformance("initial_load")
	for _, pool := range pools {
		a, err := tr.Track(ctx, pool)
		if err != nil {
			log.Warn("Failed to track pool", zap.String("pool", pool.String()), zap.Error(err))
			continue
		}
		log.WithPool(pool, a.Snapshot().Slot).Info("Pool ready")
	}
	if cfg.Discover {
		if added, err := tr.Discover(ctx); err != nil {
			log.Warn("Pool discovery failed", zap.Error(err))
		} else {
			log.Info("Pools discovered", zap.Int("added", added))
		}
	}
	endLoad()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.LogError("Metrics server failed", err, zap.String("addr", cfg.MetricsAddr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("Serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	return tr.Run(ctx)
}

func logNodeStats(log *logger.Logger, client *solbc.Client) {
	for i, n := range client.Nodes() {
		ok, failed, latency := n.Metrics()
		log.Info("RPC node stats",
			zap.Int("node", i),
			zap.Bool("active", n.IsActive()),
			zap.Uint64("success", ok),
			zap.Uint64("errors", failed),
			zap.Duration("avg_latency", latency))
	}
}
