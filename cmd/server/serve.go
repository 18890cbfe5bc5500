package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystal-mush/rpkit/pkg/boltstore"
	"github.com/crystal-mush/rpkit/pkg/gamedb"
	"github.com/crystal-mush/rpkit/pkg/redisstore"
	"github.com/crystal-mush/rpkit/pkg/server"
	"github.com/crystal-mush/rpkit/pkg/statdb"
	"github.com/crystal-mush/rpkit/pkg/weather"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "TCP port to listen on (overrides config)")
}

// openStore opens the configured object store and loads it into memory.
func openStore(ctx context.Context, conf *server.GameConf) (gamedb.Store, error) {
	var (
		store gamedb.Store
		err   error
	)
	switch conf.Store {
	case "redis":
		store, err = redisstore.Open(ctx, conf.RedisAddr, logger)
	default:
		if err := os.MkdirAll(filepath.Dir(conf.BoltPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err = boltstore.Open(conf.BoltPath, logger)
	}
	if err != nil {
		return nil, err
	}
	if err := store.LoadAll(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// openRegistry opens the stat-definition registry and imports the seed
// file, if one is configured.
func openRegistry(ctx context.Context, conf *server.GameConf) (*statdb.Registry, error) {
	if err := os.MkdirAll(filepath.Dir(conf.StatDefsDB), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	reg, err := statdb.Open(conf.StatDefsDB, logger)
	if err != nil {
		return nil, err
	}
	if conf.StatDefsFile != "" {
		n, err := reg.ImportYAML(ctx, conf.StatDefsFile)
		if err != nil {
			reg.Close()
			return nil, err
		}
		logger.Info("imported stat definitions", zap.Int("count", n), zap.String("file", conf.StatDefsFile))
	}
	return reg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	conf, err := loadConf(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := openRegistry(ctx, conf)
	if err != nil {
		return err
	}
	defer registry.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	wc, err := weather.NewClient(conf.Weather, logger, promReg)
	if err != nil {
		return err
	}
	defer wc.Close()

	g := server.NewGame(store.DB(), conf, logger)
	g.Store = store
	g.Registry = registry
	g.Weather = wc
	g.Metrics = server.NewMetrics(g, promReg)
	g.EnsureStartingRoom()

	if conf.WatchStatDefs && conf.StatDefsFile != "" {
		go func() {
			if err := registry.Watch(ctx, conf.StatDefsFile); err != nil {
				logger.Error("stat definition watcher stopped", zap.Error(err))
			}
		}()
	}

	var metricsSrv *http.Server
	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", g.Metrics.Handler())
		metricsSrv = &http.Server{Addr: conf.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		logger.Info("metrics listening", zap.String("addr", conf.MetricsAddr))
	}

	srv := server.NewServer(g)
	if err := srv.Start(fmt.Sprintf(":%d", conf.Port)); err != nil {
		return err
	}
	logger.Info("server started", zap.String("version", server.VersionString()), zap.String("mud", conf.MudName))

	<-ctx.Done()
	logger.Info("shutting down")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	srv.Stop()
	return nil
}
