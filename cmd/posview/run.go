package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/posview"
	"github.com/hazyhaar/posview/internal/bridge"
	"github.com/hazyhaar/posview/internal/browser"
	"github.com/hazyhaar/posview/internal/config"
	"github.com/hazyhaar/posview/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to the POS tab and keep its items panel in the stored mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg, path, logger); err != nil {
			logger.Error("posview: fatal", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) error {
	m := metrics.New()

	store := openPrefs(ctx, cfg, logger)
	defer store.Close()
	logger.Info("posview: preference tiers", "tiers", store.Tiers(), "key", store.Key())

	mgr := browser.NewManager(browser.Config{
		RemoteURL:   cfg.Browser.Remote,
		Headless:    *cfg.Browser.Headless,
		Bin:         cfg.Browser.Bin,
		UserDataDir: cfg.Browser.UserDataDir,
		Stealth:     *cfg.Browser.Stealth,
		Logger:      logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()

	tab, err := browser.AttachTab(ctx, mgr, cfg.Page.Match, cfg.Page.URL)
	if err != nil {
		return err
	}
	page := bridge.New(tab, logger)
	if err := page.Install(ctx); err != nil {
		return err
	}
	defer page.Close()

	sess := posview.NewSession(ctx, page, store, posview.Options{
		Screen:        cfg.Page.Screen,
		AnchorLabel:   cfg.Anchor.Label,
		AnchorTimeout: cfg.Anchor.Timeout,
		Frame:         cfg.Reconcile.Frame,
		Thresholds:    cfg.Thresholds,
		Metrics:       m,
		Logger:        logger,
	})
	if err := sess.Start(ctx); err != nil {
		return err
	}
	defer sess.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           posview.Handler(posview.MakeEndpoints(sess, logger), m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("posview: listening", "addr", cfg.Listen, "session", sess.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if path != "" {
		g.Go(func() error {
			return config.Watch(gctx, path, logger, func(c *config.Config) {
				sess.SetThresholds(c.Thresholds)
			})
		})
	}

	err = g.Wait()
	logger.Info("posview: stopped")
	return err
}
