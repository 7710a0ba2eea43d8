package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"

	"github.com/bnema/codex-accounts-cli/internal/adapters/cache"
	accountsrender "github.com/bnema/codex-accounts-cli/internal/adapters/render/accounts"
	fsrepo "github.com/bnema/codex-accounts-cli/internal/adapters/repo/fs"
	"github.com/bnema/codex-accounts-cli/internal/adapters/sessions"
	"github.com/bnema/codex-accounts-cli/internal/application"
	"github.com/bnema/codex-accounts-cli/internal/config"
	"github.com/bnema/codex-accounts-cli/internal/ports"
)

type app struct {
	service  *application.Service
	cfg      config.Config
	logger   *slog.Logger
	logLevel *slog.LevelVar
	renderer func([]accountsrender.Row, accountsrender.RenderOptions) (string, error)
	now      func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	// Warnings only by default; --verbose drops the level to debug.
	logLevel := &slog.LevelVar{}
	logLevel.Set(slog.LevelWarn)
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	}))

	clock := ports.SystemClock{}
	repo := fsrepo.NewRepository(cfg.Paths, clock, logger)
	scanner := sessions.NewScanner(cfg.Paths.SessionsDir, logger)
	store := cache.NewStore(cfg.Paths.UsageCacheDir, cfg.CacheTTL, clock, logger)

	return &app{
		service:  application.NewService(repo, scanner, store, clock, logger),
		cfg:      cfg,
		logger:   logger,
		logLevel: logLevel,
		renderer: accountsrender.Render,
		now:      time.Now,
	}, nil
}
