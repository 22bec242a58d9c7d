// Package app composes the bridge process from its providers.
package app

import (
	"context"

	"github.com/leiter/jami-kmp/internal/bridge"
	"github.com/leiter/jami-kmp/internal/config"
	"github.com/leiter/jami-kmp/internal/daemon"
	"github.com/leiter/jami-kmp/internal/daemon/emulated"
	"github.com/leiter/jami-kmp/internal/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved process configuration passed to the fx module.
type Params struct {
	ConfigPath string
	DataDir    string // optional override; empty = config value
}

// Module returns the fx module for the bridge process, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("bridge",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDaemon,
			provideBridge,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if p.DataDir != "" {
		cfg.DataDir = p.DataDir
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogPath, "jamibridged")
}

func provideDaemon(cfg *config.Config, logger *zap.Logger) daemon.Daemon {
	return emulated.New(cfg.DataDir, cfg.SignalBuffer, logger)
}

func provideBridge(cfg *config.Config, d daemon.Daemon, logger *zap.Logger) *bridge.Bridge {
	return bridge.New(cfg, d, logger)
}

func registerLifecycle(lc fx.Lifecycle, b *bridge.Bridge, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := b.Initialize(cfg.DataDir); err != nil {
				return err
			}
			if err := b.Start(); err != nil {
				_ = b.Close()
				return err
			}
			logger.Info("bridge running", zap.String("data_dir", cfg.DataDir))
			return nil
		},
		OnStop: func(_ context.Context) error {
			if err := b.Stop(); err != nil {
				logger.Warn("error stopping daemon", zap.Error(err))
			}
			if err := b.Close(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("bridge stopped")
			return nil
		},
	})
}
